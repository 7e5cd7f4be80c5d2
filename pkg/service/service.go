// Package service wires the dex rewards core together behind one explicitly
// constructed object. The process entry point builds a Service and passes it
// to whatever host surfaces (commands, listeners, UI) need it; there is no
// global mutable state.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mdks/dexrewards/pkg/catalog"
	"github.com/mdks/dexrewards/pkg/claim"
	"github.com/mdks/dexrewards/pkg/config"
	"github.com/mdks/dexrewards/pkg/domain"
	"github.com/mdks/dexrewards/pkg/grant"
	"github.com/mdks/dexrewards/pkg/migration"
	"github.com/mdks/dexrewards/pkg/store"
)

// Service owns the settings, reward catalog, record store, and claim engine.
// All operations are synchronous and return explicit outcomes for expected
// conditions.
type Service struct {
	paths    config.Paths
	settings *config.Settings
	catalog  *catalog.Catalog
	store    *store.RecordStore
	engine   *claim.Engine
	logger   *slog.Logger
}

// New constructs a fully wired service: settings loaded (or defaulted),
// catalog loaded (or populated with the default ladder), and every readable
// player record cached. executor may be nil for a logging placeholder; sink
// may be nil when no presentation layer is attached.
func New(paths config.Paths, executor grant.Executor, sink claim.NotificationSink, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if executor == nil {
		executor = grant.NewLogExecutor(logger)
	}

	settings := config.NewLoader(paths.SettingsFile, logger).Load()

	cat := catalog.NewCatalog(paths.CatalogFile, logger)
	if err := cat.Load(); err != nil {
		return nil, err
	}

	migrator := migration.NewEngine(logger)
	recordStore := store.NewRecordStore(paths.PlayerDir, settings.SavePlayerData, migrator, logger)
	if err := recordStore.LoadAll(); err != nil {
		return nil, err
	}

	engine := claim.NewEngine(settings, cat, recordStore, executor, sink, logger)

	logger.Info("Dex rewards service initialized",
		"players", recordStore.Count(),
		"claimable_tiers", len(cat.ClaimableTiers()),
	)

	return &Service{
		paths:    paths,
		settings: settings,
		catalog:  cat,
		store:    recordStore,
		engine:   engine,
		logger:   logger,
	}, nil
}

// Settings returns the loaded module settings.
func (s *Service) Settings() *config.Settings {
	return s.settings
}

// GetOrCreate returns a copy of the player's record, creating a fresh one on
// first reference. Never fails.
func (s *Service) GetOrCreate(playerID uuid.UUID) *domain.PlayerRecord {
	return s.store.GetOrCreate(playerID)
}

// RecordProgress applies a new progress count for the caught or shiny track,
// returning the thresholds newly crossed.
func (s *Service) RecordProgress(playerID uuid.UUID, track domain.Track, newCount int) ([]int, error) {
	return s.engine.RecordProgress(playerID, track, newCount)
}

// CollectSpecies adds a species to the player's living-dex set, returning
// the living-dex thresholds newly crossed.
func (s *Service) CollectSpecies(playerID uuid.UUID, species string) ([]int, error) {
	return s.engine.CollectSpecies(playerID, species)
}

// UncollectSpecies removes a species from the player's living-dex set.
func (s *Service) UncollectSpecies(playerID uuid.UUID, species string) error {
	return s.engine.UncollectSpecies(playerID, species)
}

// ReplaceSpecies replaces the player's living-dex set wholesale.
func (s *Service) ReplaceSpecies(playerID uuid.UUID, species []string) ([]int, error) {
	return s.engine.ReplaceSpecies(playerID, species)
}

// TryClaim attempts to claim a tier on a track.
func (s *Service) TryClaim(ctx context.Context, playerID uuid.UUID, track domain.Track, tierKey string) (domain.ClaimOutcome, error) {
	return s.engine.TryClaim(ctx, playerID, track, tierKey)
}

// ComputeCompletion returns the player's completion percentage on a track.
func (s *Service) ComputeCompletion(playerID uuid.UUID, track domain.Track) float64 {
	return s.engine.ComputeCompletion(playerID, track)
}

// ListClaimableTierThresholds returns the configured thresholds ascending,
// excluding the completion pseudo-tier.
func (s *Service) ListClaimableTierThresholds() []int {
	return s.engine.ClaimableTiers()
}

// GetTier looks up a tier by key, including the completion pseudo-tier.
func (s *Service) GetTier(key string) (*domain.RewardTier, bool) {
	return s.catalog.GetTier(key)
}

// ReloadCatalog re-reads the reward catalog document.
func (s *Service) ReloadCatalog() error {
	return s.catalog.Reload()
}

// ReloadRecords rebuilds the record cache from disk, migrating legacy files.
func (s *Service) ReloadRecords() error {
	return s.store.LoadAll()
}

// SaveAll flushes every cached record to disk.
func (s *Service) SaveAll() error {
	return s.store.SaveAll()
}

// Package claim computes completion against the configured tier ladder and
// enforces at-most-once claim semantics per tier per player.
package claim

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/mdks/dexrewards/pkg/catalog"
	"github.com/mdks/dexrewards/pkg/config"
	"github.com/mdks/dexrewards/pkg/domain"
	"github.com/mdks/dexrewards/pkg/grant"
	"github.com/mdks/dexrewards/pkg/store"
)

// NotificationSink receives newly crossed thresholds from progress updates,
// for presentation (chat messages, UI refresh). The core never formats
// user-facing text itself.
type NotificationSink interface {
	TiersCrossed(playerID uuid.UUID, track domain.Track, thresholds []int)
}

// Engine resolves tiers against player progress and performs the atomic
// grant + mark-claimed + persist sequence. All read-modify-write sequences
// run under the store's per-player lock, so two concurrent claims for the
// same player and tier yield exactly one Granted.
type Engine struct {
	settings *config.Settings
	catalog  *catalog.Catalog
	store    *store.RecordStore
	executor grant.Executor
	sink     NotificationSink
	logger   *slog.Logger
}

// NewEngine creates a claim engine. sink may be nil when no presentation
// layer is attached.
func NewEngine(
	settings *config.Settings,
	cat *catalog.Catalog,
	recordStore *store.RecordStore,
	executor grant.Executor,
	sink NotificationSink,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		settings: settings,
		catalog:  cat,
		store:    recordStore,
		executor: executor,
		sink:     sink,
		logger:   logger,
	}
}

// completionPercent converts a counter to a completion percentage against
// the configured total. The total is clamped to >= 1 so a misconfigured zero
// never divides; the result is deliberately not clamped to [0,100] — a
// configured total smaller than actual progress legitimately yields more
// than 100%.
func (e *Engine) completionPercent(count int) float64 {
	total := e.settings.TotalSpecies
	if total < 1 {
		total = 1
	}
	return float64(count) / float64(total) * 100
}

// ComputeCompletion returns the player's completion percentage on a track.
func (e *Engine) ComputeCompletion(playerID uuid.UUID, track domain.Track) float64 {
	rec := e.store.GetOrCreate(playerID)
	return e.completionPercent(rec.Counter(track))
}

// crossedTiers returns the configured thresholds newly at-or-below the new
// completion that were above the old one, ascending.
func (e *Engine) crossedTiers(oldPercent, newPercent float64) []int {
	var crossed []int
	for _, threshold := range e.catalog.ClaimableTiers() {
		t := float64(threshold)
		if oldPercent < t && t <= newPercent {
			crossed = append(crossed, threshold)
		}
	}
	return crossed
}

// RecordProgress stores a new counter value for the caught or shiny track
// and returns the ascending thresholds newly crossed by the update. A count
// not greater than the stored one only refreshes the record's timestamp, so
// duplicate or out-of-order notifications never re-trigger tier crossings.
// The living-dex counter is derived from its species set and is updated via
// CollectSpecies instead.
func (e *Engine) RecordProgress(playerID uuid.UUID, track domain.Track, newCount int) ([]int, error) {
	if track != domain.TrackCaught && track != domain.TrackShiny {
		e.logger.Warn("RecordProgress called for non-counter track",
			"player", playerID, "track", track)
		return nil, nil
	}

	var crossed []int
	err := e.store.Update(playerID, func(rec *domain.PlayerRecord) (bool, error) {
		prev := rec.Counter(track)
		if newCount <= prev {
			rec.Touch()
			return true, nil
		}

		rec.SetCounter(track, newCount)
		crossed = e.crossedTiers(e.completionPercent(prev), e.completionPercent(newCount))
		return true, nil
	})
	if err != nil {
		e.logger.Error("Failed to persist progress update",
			"player", playerID, "track", track, "error", err)
	}

	e.notify(playerID, track, crossed)
	return crossed, err
}

// CollectSpecies adds a species to the player's living-dex set and returns
// the living-dex thresholds newly crossed. Re-collecting a known species is
// a timestamp-refreshing no-op.
func (e *Engine) CollectSpecies(playerID uuid.UUID, species string) ([]int, error) {
	var crossed []int
	err := e.store.Update(playerID, func(rec *domain.PlayerRecord) (bool, error) {
		prev := rec.Counter(domain.TrackLivingDex)
		if !rec.AddLivingDexSpecies(species) {
			rec.Touch()
			return true, nil
		}
		crossed = e.crossedTiers(e.completionPercent(prev), e.completionPercent(prev+1))
		return true, nil
	})
	if err != nil {
		e.logger.Error("Failed to persist species collection",
			"player", playerID, "species", species, "error", err)
	}

	e.notify(playerID, domain.TrackLivingDex, crossed)
	return crossed, err
}

// UncollectSpecies removes a species from the living-dex set. Claimed tiers
// are never un-claimed by a shrinking set.
func (e *Engine) UncollectSpecies(playerID uuid.UUID, species string) error {
	return e.store.Update(playerID, func(rec *domain.PlayerRecord) (bool, error) {
		rec.RemoveLivingDexSpecies(species)
		return true, nil
	})
}

// ReplaceSpecies replaces the player's living-dex set wholesale, returning
// any thresholds crossed by a growing set.
func (e *Engine) ReplaceSpecies(playerID uuid.UUID, species []string) ([]int, error) {
	var crossed []int
	err := e.store.Update(playerID, func(rec *domain.PlayerRecord) (bool, error) {
		prev := rec.Counter(domain.TrackLivingDex)
		rec.ReplaceLivingDexSpecies(species)
		crossed = e.crossedTiers(e.completionPercent(prev), e.completionPercent(rec.Counter(domain.TrackLivingDex)))
		return true, nil
	})
	if err != nil {
		e.logger.Error("Failed to persist species replacement",
			"player", playerID, "error", err)
	}

	e.notify(playerID, domain.TrackLivingDex, crossed)
	return crossed, err
}

func (e *Engine) notify(playerID uuid.UUID, track domain.Track, crossed []int) {
	// Outside the player's lock so a slow presentation layer never blocks
	// claim traffic.
	if e.sink != nil && len(crossed) > 0 {
		e.sink.TiersCrossed(playerID, track, crossed)
	}
}

// TryClaim attempts to claim a tier on a track. The outcome is always one of
// the four ClaimOutcome values; a non-nil error accompanies Granted only when
// the write-through save failed, in which case the in-memory record is still
// claimed and remains the source of truth.
//
// Grant failures are deliberate partial-success territory: each action is
// applied in order, failures are logged per action, and the tier is marked
// claimed regardless so a deterministically failing action cannot be farmed
// through a re-claim loop.
func (e *Engine) TryClaim(ctx context.Context, playerID uuid.UUID, track domain.Track, tierKey string) (domain.ClaimOutcome, error) {
	// The completion pseudo-tier is display-only and is not configured in
	// the claimable set, so it falls out as NoSuchTier here.
	threshold, err := strconv.Atoi(tierKey)
	if err != nil {
		return domain.ClaimNoSuchTier, nil
	}
	tier, ok := e.catalog.GetTierByThreshold(threshold)
	if !ok {
		return domain.ClaimNoSuchTier, nil
	}

	outcome := domain.ClaimNoSuchTier
	err = e.store.Update(playerID, func(rec *domain.PlayerRecord) (bool, error) {
		if e.completionPercent(rec.Counter(track)) < float64(threshold) {
			outcome = domain.ClaimNotYetEligible
			return false, nil
		}
		if rec.HasClaimed(track, threshold) {
			outcome = domain.ClaimAlreadyClaimed
			return false, nil
		}

		e.grantActions(ctx, playerID, threshold, tier)

		rec.SetClaimed(track, threshold)
		outcome = domain.ClaimGranted
		return true, nil
	})
	if err != nil {
		e.logger.Error("Failed to persist claim",
			"player", playerID, "track", track, "tier", threshold, "error", err)
	}

	return outcome, err
}

// grantActions applies the tier's actions in configured order. No rollback:
// a failed action is logged and the rest still run.
func (e *Engine) grantActions(ctx context.Context, playerID uuid.UUID, threshold int, tier *domain.RewardTier) {
	for i, action := range tier.Actions {
		if !e.settings.RewardKindEnabled(string(action.Kind())) {
			e.logger.Warn("Skipping reward action of disabled kind",
				"player", playerID, "tier", threshold, "kind", action.Kind())
			continue
		}
		if err := e.executor.Apply(ctx, playerID, action); err != nil {
			e.logger.Error("Reward action failed",
				"player", playerID,
				"tier", threshold,
				"action_index", i,
				"kind", action.Kind(),
				"reward", action.DisplayText(),
				"error", err,
			)
		}
	}
}

// ClaimableTiers returns the configured thresholds in ascending order.
func (e *Engine) ClaimableTiers() []int {
	return e.catalog.ClaimableTiers()
}

package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/mdks/dexrewards/pkg/config"
	"github.com/mdks/dexrewards/pkg/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestService_NewBootstrapsDefaults(t *testing.T) {
	dir := t.TempDir()

	svc, err := New(config.PathsIn(dir), nil, nil, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// First startup writes both config documents for the operator to edit.
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Errorf("settings file not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "rewardconfig.json")); err != nil {
		t.Errorf("catalog file not written: %v", err)
	}

	if got := svc.Settings().TotalSpecies; got != 1025 {
		t.Errorf("totalSpecies = %d, want default 1025", got)
	}
	if tiers := svc.ListClaimableTierThresholds(); len(tiers) != 10 {
		t.Errorf("claimable tiers = %v, want the default ladder", tiers)
	}
	if _, ok := svc.GetTier(domain.CompletionTierKey); !ok {
		t.Error("expected the completion pseudo-tier to resolve")
	}
}

func TestService_ProgressAndClaimSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	paths := config.PathsIn(dir)
	id := uuid.New()

	svc, err := New(paths, nil, nil, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 513 of the default 1025 species is just past the 50% tier.
	if _, err := svc.RecordProgress(id, domain.TrackCaught, 513); err != nil {
		t.Fatalf("RecordProgress: %v", err)
	}
	outcome, err := svc.TryClaim(context.Background(), id, domain.TrackCaught, "50")
	if err != nil {
		t.Fatalf("TryClaim: %v", err)
	}
	if outcome != domain.ClaimGranted {
		t.Fatalf("outcome = %q, want %q", outcome, domain.ClaimGranted)
	}
	if err := svc.SaveAll(); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	// A second service over the same directory is a process restart.
	svc2, err := New(paths, nil, nil, testLogger())
	if err != nil {
		t.Fatalf("restart New: %v", err)
	}

	rec := svc2.GetOrCreate(id)
	if rec.TotalCaught != 513 {
		t.Errorf("totalCaught after restart = %d, want 513", rec.TotalCaught)
	}
	if !rec.HasClaimed(domain.TrackCaught, 50) {
		t.Error("expected claimed tier to survive the restart")
	}

	outcome, err = svc2.TryClaim(context.Background(), id, domain.TrackCaught, "50")
	if err != nil {
		t.Fatalf("TryClaim after restart: %v", err)
	}
	if outcome != domain.ClaimAlreadyClaimed {
		t.Errorf("outcome after restart = %q, want %q", outcome, domain.ClaimAlreadyClaimed)
	}
}

func TestService_StartupMigratesLegacyRecords(t *testing.T) {
	dir := t.TempDir()
	paths := config.PathsIn(dir)
	id := uuid.New()

	if err := os.MkdirAll(paths.PlayerDir, 0o755); err != nil {
		t.Fatal(err)
	}
	legacy := `{"version":"1.0","totalCaught":50,"highestTierReached":30,"claimedRewards":{"10":true,"20":true}}`
	if err := os.WriteFile(filepath.Join(paths.PlayerDir, id.String()+".json"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, err := New(paths, nil, nil, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := svc.GetOrCreate(id)
	if rec.Version != domain.SchemaVersionV2 {
		t.Errorf("version = %q, want %q", rec.Version, domain.SchemaVersionV2)
	}
	if rec.TotalCaught != 50 || !rec.HasClaimed(domain.TrackCaught, 20) {
		t.Errorf("migrated record lost v1 state: %+v", rec)
	}
}

func TestService_ReloadCatalog(t *testing.T) {
	dir := t.TempDir()
	paths := config.PathsIn(dir)

	svc, err := New(paths, nil, nil, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	custom := `{"rewards": {"42": {"row": 1, "slot": 1, "command": "give %player% minecraft:apple 1"}}}`
	if err := os.WriteFile(paths.CatalogFile, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := svc.ReloadCatalog(); err != nil {
		t.Fatalf("ReloadCatalog: %v", err)
	}

	tiers := svc.ListClaimableTierThresholds()
	if len(tiers) != 1 || tiers[0] != 42 {
		t.Errorf("claimable tiers after reload = %v, want [42]", tiers)
	}
}

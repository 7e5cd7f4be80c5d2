package migration

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mdks/dexrewards/pkg/domain"
	"github.com/mdks/dexrewards/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

const v1Doc = `{
  "totalCaught": 50,
  "highestTierReached": 30,
  "claimedRewards": {"10": true, "20": true}
}`

func writeRecord(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectVersion(t *testing.T) {
	t.Run("explicit version", func(t *testing.T) {
		if got := DetectVersion([]byte(`{"version": "2.0"}`)); got != "2.0" {
			t.Errorf("DetectVersion = %q, want 2.0", got)
		}
	})

	t.Run("missing version implies v1", func(t *testing.T) {
		if got := DetectVersion([]byte(`{"totalCaught": 5}`)); got != domain.SchemaVersionV1 {
			t.Errorf("DetectVersion = %q, want %q", got, domain.SchemaVersionV1)
		}
	})

	t.Run("unparseable implies v1", func(t *testing.T) {
		if got := DetectVersion([]byte(`garbage`)); got != domain.SchemaVersionV1 {
			t.Errorf("DetectVersion = %q, want %q", got, domain.SchemaVersionV1)
		}
	})
}

func TestNeedsMigration(t *testing.T) {
	if !NeedsMigration([]byte(v1Doc)) {
		t.Error("expected v1 document to need migration")
	}
	if NeedsMigration([]byte(`{"version": "2.0"}`)) {
		t.Error("expected current document to not need migration")
	}
}

func TestMigrateV1ToV2(t *testing.T) {
	out, err := migrateV1ToV2([]byte(v1Doc))
	if err != nil {
		t.Fatalf("migrateV1ToV2: %v", err)
	}

	var rec domain.PlayerRecord
	if err := json.Unmarshal(out, &rec); err != nil {
		t.Fatalf("decode migrated record: %v", err)
	}

	if rec.Version != "2.0" {
		t.Errorf("version = %q, want 2.0", rec.Version)
	}
	if rec.TotalCaught != 50 {
		t.Errorf("totalCaught = %d, want 50", rec.TotalCaught)
	}
	if rec.HighestTierReached != 30 {
		t.Errorf("highestTierReached = %d, want 30", rec.HighestTierReached)
	}
	if !rec.ClaimedRewards[10] || !rec.ClaimedRewards[20] || len(rec.ClaimedRewards) != 2 {
		t.Errorf("claimedRewards not preserved: %v", rec.ClaimedRewards)
	}
	if rec.TotalShinyCaught != 0 || rec.HighestShinyTierReached != 0 {
		t.Error("expected zero defaults for new v2 counters")
	}
	if len(rec.ClaimedShinyRewards) != 0 || len(rec.ClaimedLivingDexRewards) != 0 || len(rec.LivingDexSpecies) != 0 {
		t.Error("expected empty defaults for new v2 sets")
	}
	if rec.LastSaveTime == 0 {
		t.Error("expected fresh lastSaveTime stamp")
	}

	// The transform is pure: the input must be decodable as v1 still.
	if DetectVersion([]byte(v1Doc)) != domain.SchemaVersionV1 {
		t.Error("input document was modified")
	}
}

func TestEngine_MigrateFile(t *testing.T) {
	t.Run("migrates and backs up", func(t *testing.T) {
		dir := t.TempDir()
		path := writeRecord(t, dir, "player.json", v1Doc)
		engine := NewEngine(testLogger())

		if err := engine.MigrateFile(path); err != nil {
			t.Fatalf("MigrateFile: %v", err)
		}

		// The working file is now at the current version.
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if DetectVersion(data) != domain.CurrentSchemaVersion {
			t.Errorf("migrated file version = %q", DetectVersion(data))
		}

		// A backup sibling with the original bytes exists.
		backups, _ := filepath.Glob(filepath.Join(dir, "player"+BackupSuffix+"*.json"))
		if len(backups) != 1 {
			t.Fatalf("expected 1 backup, found %d", len(backups))
		}
		backup, err := os.ReadFile(backups[0])
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(backup, []byte(v1Doc)) {
			t.Error("backup does not match the original bytes")
		}
	})

	t.Run("current version is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		rec := domain.NewPlayerRecord()
		data, _ := json.Marshal(rec)
		path := writeRecord(t, dir, "player.json", string(data))
		engine := NewEngine(testLogger())

		if err := engine.MigrateFile(path); err != nil {
			t.Fatalf("MigrateFile: %v", err)
		}

		backups, _ := filepath.Glob(filepath.Join(dir, "player"+BackupSuffix+"*.json"))
		if len(backups) != 0 {
			t.Errorf("expected no backups for a current record, found %d", len(backups))
		}
	})

	t.Run("empty file fails", func(t *testing.T) {
		dir := t.TempDir()
		path := writeRecord(t, dir, "player.json", "")
		engine := NewEngine(testLogger())

		err := engine.MigrateFile(path)
		if !errors.HasCode(err, errors.ErrCodeMigrationFailed) {
			t.Errorf("expected MIGRATION_FAILED, got %v", err)
		}
	})

	t.Run("unknown version leaves original untouched", func(t *testing.T) {
		dir := t.TempDir()
		doc := `{"version": "0.5", "totalCaught": 9}`
		path := writeRecord(t, dir, "player.json", doc)
		engine := NewEngine(testLogger())

		err := engine.MigrateFile(path)
		if !errors.HasCode(err, errors.ErrCodeMigrationFailed) {
			t.Errorf("expected MIGRATION_FAILED, got %v", err)
		}

		data, _ := os.ReadFile(path)
		if string(data) != doc {
			t.Error("original file was modified despite failed migration")
		}
	})

	t.Run("unparseable v1 body leaves original untouched", func(t *testing.T) {
		dir := t.TempDir()
		doc := `{"totalCaught": "not-a-number"}`
		path := writeRecord(t, dir, "player.json", doc)
		engine := NewEngine(testLogger())

		if err := engine.MigrateFile(path); err == nil {
			t.Fatal("expected migration to fail")
		}

		data, _ := os.ReadFile(path)
		if string(data) != doc {
			t.Error("original file was modified despite failed migration")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("complete document", func(t *testing.T) {
		out, err := migrateV1ToV2([]byte(v1Doc))
		if err != nil {
			t.Fatal(err)
		}
		if reason := validate(out); reason != "" {
			t.Errorf("expected migrated document to validate, got %q", reason)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		if reason := validate([]byte(`{"version": "2.0"}`)); !strings.Contains(reason, "missing field") {
			t.Errorf("expected missing-field reason, got %q", reason)
		}
	})

	t.Run("wrong version", func(t *testing.T) {
		out, err := migrateV1ToV2([]byte(v1Doc))
		if err != nil {
			t.Fatal(err)
		}
		tampered := bytes.Replace(out, []byte(`"2.0"`), []byte(`"1.0"`), 1)
		if reason := validate(tampered); reason != "wrong version" {
			t.Errorf("expected wrong-version reason, got %q", reason)
		}
	})
}

func TestEngine_RecoverFromBackup(t *testing.T) {
	t.Run("restores newest backup", func(t *testing.T) {
		dir := t.TempDir()
		path := writeRecord(t, dir, "player.json", `corrupted`)
		older := writeRecord(t, dir, "player"+BackupSuffix+"20240101_000000.json", `{"totalCaught": 1}`)
		newer := writeRecord(t, dir, "player"+BackupSuffix+"20250101_000000.json", v1Doc)

		// Make mtimes deterministic regardless of write order.
		now := time.Now()
		if err := os.Chtimes(older, now.Add(-2*time.Hour), now.Add(-2*time.Hour)); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(newer, now, now); err != nil {
			t.Fatal(err)
		}

		engine := NewEngine(testLogger())
		if err := engine.RecoverFromBackup(path); err != nil {
			t.Fatalf("RecoverFromBackup: %v", err)
		}

		data, _ := os.ReadFile(path)
		if !bytes.Equal(data, []byte(v1Doc)) {
			t.Error("expected the most recently modified backup to be restored")
		}
	})

	t.Run("no backups", func(t *testing.T) {
		dir := t.TempDir()
		path := writeRecord(t, dir, "player.json", `corrupted`)

		err := NewEngine(testLogger()).RecoverFromBackup(path)
		if !errors.HasCode(err, errors.ErrCodeBackupNotFound) {
			t.Errorf("expected BACKUP_NOT_FOUND, got %v", err)
		}
	})
}

func TestIsBackupFile(t *testing.T) {
	if !IsBackupFile("player_backup_20250101_000000.json") {
		t.Error("expected backup file to be detected")
	}
	if IsBackupFile("player.json") {
		t.Error("expected live record to not be a backup")
	}
}

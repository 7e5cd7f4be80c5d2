// Package migration upgrades persisted player records between schema
// versions. Upgrades are strictly forward: each step transforms one version
// to the next, and a record passes through every step between its detected
// version and the current one.
package migration

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mdks/dexrewards/pkg/domain"
	"github.com/mdks/dexrewards/pkg/errors"
)

// BackupSuffix separates a record's base name from its backup timestamp.
// Backup siblings are never overwritten and never deleted by this engine.
const BackupSuffix = "_backup_"

// backupTimestampLayout embeds the migration time into the backup file name.
const backupTimestampLayout = "20060102_150405"

// requiredFields is the full field set of a current-version document.
// Validation of a migrated record checks every one of these is present.
var requiredFields = []string{
	"version", "totalCaught", "highestTierReached", "claimedRewards",
	"totalShinyCaught", "highestShinyTierReached", "claimedShinyRewards",
	"livingDexSpecies", "claimedLivingDexRewards", "lastSaveTime",
}

// step is one forward version transform. apply is pure: the input document
// is never modified and a new document is returned.
type step struct {
	from  string
	to    string
	apply func(data []byte) ([]byte, error)
}

// steps is the ordered transform chain. Adding a v3 means appending one
// entry here and extending requiredFields.
var steps = []step{
	{from: domain.SchemaVersionV1, to: domain.SchemaVersionV2, apply: migrateV1ToV2},
}

// DetectVersion reads the version field of a raw record document. A document
// without the field predates versioning and is treated as v1.
func DetectVersion(data []byte) string {
	var probe struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.Version == "" {
		return domain.SchemaVersionV1
	}
	return probe.Version
}

// NeedsMigration reports whether a raw record document is older than the
// current schema version.
func NeedsMigration(data []byte) bool {
	return DetectVersion(data) != domain.CurrentSchemaVersion
}

// recordV1 is the field set of a v1 document. Everything else in the current
// schema was introduced by v2.
type recordV1 struct {
	TotalCaught        int          `json:"totalCaught"`
	HighestTierReached int          `json:"highestTierReached"`
	ClaimedRewards     map[int]bool `json:"claimedRewards"`
}

// migrateV1ToV2 copies the v1 fields forward verbatim and introduces every
// v2 field with its zero-value default.
func migrateV1ToV2(data []byte) ([]byte, error) {
	var v1 recordV1
	if err := json.Unmarshal(data, &v1); err != nil {
		return nil, fmt.Errorf("decode v1 record: %w", err)
	}
	if v1.ClaimedRewards == nil {
		v1.ClaimedRewards = map[int]bool{}
	}

	v2 := domain.PlayerRecord{
		Version:                 domain.SchemaVersionV2,
		TotalCaught:             v1.TotalCaught,
		HighestTierReached:      v1.HighestTierReached,
		ClaimedRewards:          v1.ClaimedRewards,
		ClaimedShinyRewards:     map[int]bool{},
		ClaimedLivingDexRewards: map[int]bool{},
		LivingDexSpecies:        map[string]bool{},
		LastSaveTime:            time.Now().UnixMilli(),
	}

	return json.MarshalIndent(&v2, "", "  ")
}

// Engine performs on-disk record migrations with mandatory backups and a
// recovery path. Failures are per-record: a record that cannot be migrated is
// reported and left untouched, and other records are unaffected.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a migration engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// IsBackupFile reports whether a file name is a backup sibling rather than a
// live record document.
func IsBackupFile(name string) bool {
	return strings.Contains(name, BackupSuffix)
}

// CreateBackup copies the raw bytes of path to a timestamped sibling before
// any mutation. Returns the backup path.
func (e *Engine) CreateBackup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().Format(backupTimestampLayout)
	base := strings.TrimSuffix(path, ".json")
	backupPath := base + BackupSuffix + timestamp + ".json"

	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", err
	}

	e.logger.Info("Created migration backup", "backup", filepath.Base(backupPath))
	return backupPath, nil
}

// MigrateFile upgrades one record file to the current schema version.
// Sequence: read, back up, transform through the step chain, validate, then
// overwrite the original. Any failure before the final write leaves the
// original untouched; a failed final write can be undone with
// RecoverFromBackup.
func (e *Engine) MigrateFile(path string) error {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ErrMigrationFailed(name, err)
	}
	if len(data) == 0 {
		return errors.ErrMigrationFailed(name, fmt.Errorf("file is empty"))
	}

	version := DetectVersion(data)
	if version == domain.CurrentSchemaVersion {
		return nil
	}

	if _, err := e.CreateBackup(path); err != nil {
		e.logger.Error("Failed to create backup, aborting migration",
			"file", name, "error", err)
		return errors.ErrMigrationBackupFailed(name, err)
	}

	migrated, err := e.transform(data, version)
	if err != nil {
		e.logger.Error("Failed to transform record", "file", name, "error", err)
		return errors.ErrMigrationFailed(name, err)
	}

	if reason := validate(migrated); reason != "" {
		e.logger.Error("Migrated record failed validation",
			"file", name, "reason", reason)
		return errors.ErrMigrationValidationFailed(name, reason)
	}

	if err := os.WriteFile(path, migrated, 0o644); err != nil {
		e.logger.Error("Failed to write migrated record", "file", name, "error", err)
		return errors.ErrMigrationFailed(name, err)
	}

	e.logger.Info("Migrated record",
		"file", name,
		"from", version,
		"to", domain.CurrentSchemaVersion,
	)
	return nil
}

// transform applies the step chain in order until the current version is
// reached.
func (e *Engine) transform(data []byte, version string) ([]byte, error) {
	for version != domain.CurrentSchemaVersion {
		var next *step
		for i := range steps {
			if steps[i].from == version {
				next = &steps[i]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("no migration path from version %q", version)
		}

		out, err := next.apply(data)
		if err != nil {
			return nil, fmt.Errorf("migrate %s to %s: %w", next.from, next.to, err)
		}
		data = out
		version = next.to
	}
	return data, nil
}

// validate checks a migrated document contains every required field and is
// stamped with the current version. Returns an empty string when valid.
func validate(data []byte) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return "not a JSON object"
	}
	for _, field := range requiredFields {
		if _, ok := doc[field]; !ok {
			return "missing field " + field
		}
	}
	var version string
	if err := json.Unmarshal(doc["version"], &version); err != nil || version != domain.CurrentSchemaVersion {
		return "wrong version"
	}
	return ""
}

// RecoverFromBackup restores the most recently modified backup sibling over
// the record file at path.
func (e *Engine) RecoverFromBackup(path string) error {
	name := filepath.Base(path)
	base := strings.TrimSuffix(path, ".json")

	matches, err := filepath.Glob(base + BackupSuffix + "*.json")
	if err != nil || len(matches) == 0 {
		return errors.ErrBackupNotFound(name)
	}

	var newest string
	var newestTime time.Time
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = match
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return errors.ErrBackupNotFound(name)
	}

	data, err := os.ReadFile(newest)
	if err != nil {
		return errors.ErrMigrationFailed(name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.ErrMigrationFailed(name, err)
	}

	e.logger.Info("Recovered record from backup",
		"file", name,
		"backup", filepath.Base(newest),
	)
	return nil
}

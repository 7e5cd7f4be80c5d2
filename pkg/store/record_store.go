// Package store persists one player record document per UUID under a
// configurable directory, with an unbounded in-memory cache and write-through
// saves. All read-modify-write sequences for one player run under that
// player's lock, which is the module's concurrency contract for claims and
// progress updates.
package store

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mdks/dexrewards/pkg/domain"
	"github.com/mdks/dexrewards/pkg/errors"
	"github.com/mdks/dexrewards/pkg/migration"
)

// RecordStore loads, caches, and persists player records. The cache is never
// evicted during the process lifetime; it is bounded by the number of
// distinct players seen.
type RecordStore struct {
	dir      string
	persist  bool
	migrator *migration.Engine
	logger   *slog.Logger

	mu      sync.Mutex // guards records and locks maps
	records map[uuid.UUID]*domain.PlayerRecord
	locks   map[uuid.UUID]*sync.Mutex
}

// NewRecordStore creates a store rooted at dir, creating the directory on
// first use. When persist is false, saves become no-ops and records live only
// in memory.
func NewRecordStore(dir string, persist bool, migrator *migration.Engine, logger *slog.Logger) *RecordStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to create player data directory", "dir", dir, "error", err)
	}
	return &RecordStore{
		dir:      dir,
		persist:  persist,
		migrator: migrator,
		logger:   logger,
		records:  make(map[uuid.UUID]*domain.PlayerRecord),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the per-player mutex, creating it on first reference.
func (s *RecordStore) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *RecordStore) cached(id uuid.UUID) (*domain.PlayerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *RecordStore) cache(id uuid.UUID, rec *domain.PlayerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = rec
}

// path returns the record file for a player.
func (s *RecordStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

// Load reads the persisted document for id, migrating it first when its
// schema version is older than current. A missing document is reported as a
// not-found error, distinct from decode failures.
func (s *RecordStore) Load(id uuid.UUID) (*domain.PlayerRecord, error) {
	path := s.path(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrRecordNotFound(id.String())
		}
		return nil, errors.ErrRecordDecodeFailed(filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil, errors.ErrRecordNotFound(id.String())
	}

	if migration.NeedsMigration(data) {
		if err := s.migrator.MigrateFile(path); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.ErrRecordDecodeFailed(filepath.Base(path), err)
		}
	}

	var rec domain.PlayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.ErrRecordDecodeFailed(filepath.Base(path), err)
	}
	rec.Normalize()
	return &rec, nil
}

// getOrCreateLocked implements GetOrCreate under the player's lock.
func (s *RecordStore) getOrCreateLocked(id uuid.UUID) *domain.PlayerRecord {
	if rec, ok := s.cached(id); ok {
		return rec
	}

	rec, err := s.Load(id)
	switch {
	case err == nil:
	case errors.IsNotFound(err):
		rec = domain.NewPlayerRecord()
	default:
		// An unreadable document is treated as no document. The file is
		// left in place until the next successful save overwrites it.
		s.logger.Error("Failed to load player record, starting fresh",
			"player", id, "error", err)
		rec = domain.NewPlayerRecord()
	}

	s.cache(id, rec)
	return rec
}

// GetOrCreate returns a copy of the player's record, loading it from disk on
// first reference and creating a fresh record when no document exists. Never
// fails.
func (s *RecordStore) GetOrCreate(id uuid.UUID) *domain.PlayerRecord {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return s.getOrCreateLocked(id).Clone()
}

// Update runs fn against the player's live record under the player's lock,
// creating the record first if needed. When fn returns save=true the record
// is persisted before the lock is released; a write failure is returned but
// the in-memory mutation stands. fn errors abort without saving.
func (s *RecordStore) Update(id uuid.UUID, fn func(rec *domain.PlayerRecord) (save bool, err error)) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec := s.getOrCreateLocked(id)
	save, err := fn(rec)
	if err != nil {
		return err
	}
	if !save {
		return nil
	}
	return s.saveLocked(id, rec)
}

// saveLocked serializes one record as a whole-document overwrite. Caller
// holds the player's lock, so concurrent saves for the same id never
// interleave.
func (s *RecordStore) saveLocked(id uuid.UUID, rec *domain.PlayerRecord) error {
	if !s.persist {
		return nil
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.ErrStorageWriteFailed(id.String()+".json", err)
	}
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		s.logger.Error("Failed to save player record", "player", id, "error", err)
		return errors.ErrStorageWriteFailed(id.String()+".json", err)
	}
	return nil
}

// Save persists the player's cached record. A player with no cached record is
// a no-op.
func (s *RecordStore) Save(id uuid.UUID) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, ok := s.cached(id)
	if !ok {
		return nil
	}
	return s.saveLocked(id, rec)
}

// SaveAll flushes every cached record to disk. Failures are logged per
// record and joined into the returned error; one player's failure never
// blocks the others.
func (s *RecordStore) SaveAll() error {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := s.Save(id); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// LoadAll rebuilds the cache from every record document in the directory,
// migrating legacy files as they are encountered. Backup siblings are
// skipped. A record that fails migration or decoding is excluded from the
// cache for this run rather than replaced with a fresh record, so its
// progress is not lost. Admin-triggered; not meant to race with live claim
// traffic.
func (s *RecordStore) LoadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	loaded := make(map[uuid.UUID]*domain.PlayerRecord)
	var migrated, failed int

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || migration.IsBackupFile(name) {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.logger.Warn("Skipping record file with non-UUID name", "file", name)
			continue
		}

		data, readErr := os.ReadFile(filepath.Join(s.dir, name))
		needed := readErr == nil && migration.NeedsMigration(data)

		rec, err := s.Load(id)
		if err != nil {
			failed++
			s.logger.Error("Failed to load player record, excluding from cache",
				"file", name, "error", err)
			continue
		}
		if needed {
			migrated++
		}
		loaded[id] = rec
	}

	s.mu.Lock()
	s.records = loaded
	s.mu.Unlock()

	s.logger.Info("Player records loaded",
		"records", len(loaded),
		"migrated", migrated,
		"failed", failed,
	)
	return nil
}

// Count returns the number of cached records.
func (s *RecordStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

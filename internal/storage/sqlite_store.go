package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/calhours/internal/backup"
	"github.com/julianstephens/calhours/internal/logger"
	"github.com/julianstephens/calhours/internal/migration"
	"github.com/julianstephens/calhours/internal/models"
	"github.com/julianstephens/calhours/migrations"
)

// timestampFormat is fixed width so fetched_at sorts lexically.
const timestampFormat = "2006-01-02T15:04:05.000000000Z"

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

func (s *SQLiteStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return ErrNotInitialized
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := migration.NewRunner(db, migrations.FS).Check(); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteStore) runMigrations() error {
	runner := migration.NewRunner(s.db, migrations.FS)
	if err := s.backupBeforeUpgrade(runner); err != nil {
		return err
	}
	_, err := runner.Up(logger.Info)
	return err
}

// backupBeforeUpgrade copies an existing database aside when migrations are
// about to change its schema. Fresh databases are not backed up.
func (s *SQLiteStore) backupBeforeUpgrade(runner *migration.Runner) error {
	current, err := runner.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	latest, err := runner.LatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest version: %w", err)
	}
	if current == 0 || current >= latest {
		return nil
	}

	path, err := backup.NewManager(s.path).CreateBackup()
	if err != nil && path == "" {
		return fmt.Errorf("failed to back up database before migrating: %w", err)
	}
	if err != nil {
		logger.Warn("Backup rotation failed", "error", err)
	}
	logger.Info("Backed up database before migrating", "path", path, "from", current, "to", latest)
	return nil
}

func (s *SQLiteStore) SaveSnapshot(snap models.Snapshot) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	entries, err := json.Marshal(snap.Entries)
	if err != nil {
		return fmt.Errorf("failed to serialize entries: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (id, range_name, fetched_at, entries) VALUES (?, ?, ?, ?)",
		snap.ID, string(snap.Range), snap.FetchedAt.UTC().Format(timestampFormat), string(entries),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestSnapshot(r models.Range) (models.Snapshot, error) {
	snaps, err := s.ListSnapshots(r, 1)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(snaps) == 0 {
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, r)
	}
	return snaps[0], nil
}

func (s *SQLiteStore) ListSnapshots(r models.Range, limit int) ([]models.Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	query := "SELECT id, range_name, fetched_at, entries FROM snapshots"
	var args []any
	if r != "" {
		query += " WHERE range_name = ?"
		args = append(args, string(r))
	}
	query += " ORDER BY fetched_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		var rangeName, fetchedAt, entries string
		if err := rows.Scan(&snap.ID, &rangeName, &fetchedAt, &entries); err != nil {
			return nil, err
		}
		snap.Range = models.Range(rangeName)
		snap.FetchedAt, err = time.Parse(timestampFormat, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: invalid fetched_at: %w", snap.ID, err)
		}
		if err := json.Unmarshal([]byte(entries), &snap.Entries); err != nil {
			return nil, fmt.Errorf("snapshot %s: invalid entries: %w", snap.ID, err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// GetDB exposes the open connection for diagnostics. Nil until Init or Load.
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

// IsNoSnapshot reports whether err means nothing has been stored yet.
func IsNoSnapshot(err error) bool {
	return errors.Is(err, ErrNoSnapshot)
}

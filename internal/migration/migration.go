// Package migration versions the snapshot database from NNN_name.sql files.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrSchemaTooNew is returned when the database was written by a newer build.
var ErrSchemaTooNew = errors.New("snapshot schema is newer than supported")

// LogFunc receives progress messages as key/value pairs, matching the logger
// helpers.
type LogFunc func(msg string, keyvals ...interface{})

var fileName = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migration is one schema step read from the migrations FS.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Applied is a row of the snapshot_schema ledger.
type Applied struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

type Runner struct {
	db  *sql.DB
	fs  fs.FS
	now func() time.Time
}

func NewRunner(db *sql.DB, migrationFS fs.FS) *Runner {
	return &Runner{
		db:  db,
		fs:  migrationFS,
		now: time.Now,
	}
}

// ensureLedger creates snapshot_schema, which keeps one row per applied step.
func (r *Runner) ensureLedger() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshot_schema (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshot_schema: %w", err)
	}
	return nil
}

// CurrentVersion is the highest applied version, 0 for a fresh database.
func (r *Runner) CurrentVersion() (int, error) {
	if err := r.ensureLedger(); err != nil {
		return 0, err
	}
	var version int
	if err := r.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM snapshot_schema").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read snapshot schema version: %w", err)
	}
	return version, nil
}

// History lists applied steps, oldest first.
func (r *Runner) History() ([]Applied, error) {
	if err := r.ensureLedger(); err != nil {
		return nil, err
	}
	rows, err := r.db.Query("SELECT version, name, applied_at FROM snapshot_schema ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot schema history: %w", err)
	}
	defer rows.Close()

	var out []Applied
	for rows.Next() {
		var a Applied
		var at string
		if err := rows.Scan(&a.Version, &a.Name, &at); err != nil {
			return nil, err
		}
		a.AppliedAt, _ = time.Parse(time.RFC3339, at)
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkApplied records version without running any SQL.
func (r *Runner) MarkApplied(version int, name string) error {
	if err := r.ensureLedger(); err != nil {
		return err
	}
	return record(r.db, version, name, r.now())
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func record(db execer, version int, name string, at time.Time) error {
	_, err := db.Exec(
		"INSERT OR REPLACE INTO snapshot_schema (version, name, applied_at) VALUES (?, ?, ?)",
		version, name, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot schema %d: %w", version, err)
	}
	return nil
}

// Migrations returns every step in the FS sorted by version. Non-.sql files
// are ignored; a .sql file that is not NNN_name.sql is an error.
func (r *Runner) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(r.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var steps []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m, err := parseFileName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[m.Version]; ok {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, e.Name(), m.Version)
		}
		seen[m.Version] = e.Name()

		body, err := fs.ReadFile(r.fs, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		m.SQL = string(body)
		steps = append(steps, m)
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })
	return steps, nil
}

func parseFileName(name string) (Migration, error) {
	match := fileName.FindStringSubmatch(name)
	if match == nil {
		return Migration{}, fmt.Errorf("migration %s: expected NNN_name.sql", name)
	}
	version, err := strconv.Atoi(match[1])
	if err != nil || version < 1 {
		return Migration{}, fmt.Errorf("migration %s: version must be a positive number", name)
	}
	return Migration{Version: version, Name: match[2]}, nil
}

// LatestVersion is the highest version shipped in the FS.
func (r *Runner) LatestVersion() (int, error) {
	steps, err := r.Migrations()
	if err != nil {
		return 0, err
	}
	if len(steps) == 0 {
		return 0, nil
	}
	return steps[len(steps)-1].Version, nil
}

// Check fails with ErrSchemaTooNew when the database is ahead of this build.
func (r *Runner) Check() error {
	current, err := r.CurrentVersion()
	if err != nil {
		return err
	}
	latest, err := r.LatestVersion()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("%w: database at %d, this build supports %d", ErrSchemaTooNew, current, latest)
	}
	return nil
}

// Up applies every step above the current version, each in its own
// transaction, and returns how many were applied.
func (r *Runner) Up(log LogFunc) (int, error) {
	if log == nil {
		log = func(string, ...interface{}) {}
	}
	if err := r.Check(); err != nil {
		return 0, err
	}

	current, err := r.CurrentVersion()
	if err != nil {
		return 0, err
	}
	steps, err := r.Migrations()
	if err != nil {
		return 0, err
	}

	var pending []Migration
	for _, m := range steps {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		log("Snapshot schema up to date", "version", current)
		return 0, nil
	}

	log("Migrating snapshot schema", "from", current, "to", pending[len(pending)-1].Version)
	start := time.Now()
	for i, m := range pending {
		if err := r.step(m); err != nil {
			return i, err
		}
		log("Snapshot schema step applied", "version", m.Version, "name", m.Name)
	}
	log("Snapshot schema migrated", "steps", len(pending), "took", time.Since(start))
	return len(pending), nil
}

func (r *Runner) step(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("snapshot schema %d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("snapshot schema %d (%s): %w", m.Version, m.Name, err)
	}
	if err := record(tx, m.Version, m.Name, r.now()); err != nil {
		return err
	}
	return tx.Commit()
}

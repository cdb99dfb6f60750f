package migration

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/calhours/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mapFS(files map[string]string) fstest.MapFS {
	out := fstest.MapFS{}
	for name, content := range files {
		out[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return out
}

func TestCurrentVersion(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}))

	version, err := runner.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, runner.MarkApplied(5, "manual"))

	version, err = runner.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 5, version)
}

func TestMigrations_Sorted(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"002_second.sql": "SELECT 2;",
		"001_first.sql":  "SELECT 1;",
		"README.md":      "ignored",
	}))

	got, err := runner.Migrations()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, 2, got[1].Version)
}

func TestUp_FromScratchThenNoOp(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_a.sql": "CREATE TABLE a (id INTEGER);",
		"002_b.sql": "CREATE TABLE b (id INTEGER);",
	}))

	var logs []string
	count, err := runner.Up(func(msg string, _ ...interface{}) { logs = append(logs, msg) })
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NotEmpty(t, logs)

	version, err := runner.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	count, err = runner.Up(nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = db.Exec("INSERT INTO b (id) VALUES (1)")
	assert.NoError(t, err)
}

func TestUp_RollbackOnError(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"001_ok.sql":  "CREATE TABLE ok (id INTEGER);",
		"002_bad.sql": "THIS IS NOT SQL;",
	}))

	count, err := runner.Up(nil)
	require.Error(t, err)
	assert.Equal(t, 1, count)

	version, err := runner.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestCheck_NewerDatabase(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"001_a.sql": "CREATE TABLE a (id INTEGER);",
	}))
	require.NoError(t, runner.MarkApplied(10, "future"))

	assert.ErrorIs(t, runner.Check(), ErrSchemaTooNew)
	count, err := runner.Up(nil)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
	assert.Zero(t, count)
}

func TestMigrations_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"no underscore":     {"001.sql": "SELECT 1;"},
		"non-numeric":       {"abc_init.sql": "SELECT 1;"},
		"zero version":      {"000_init.sql": "SELECT 1;"},
		"duplicate version": {"001_a.sql": "SELECT 1;", "01_b.sql": "SELECT 1;"},
	}

	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewRunner(setupTestDB(t), mapFS(files)).Migrations()
			assert.Error(t, err)
		})
	}
}

func TestEmbeddedMigrationsApply(t *testing.T) {
	runner := NewRunner(setupTestDB(t), migrations.FS)

	count, err := runner.Up(nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
	assert.NoError(t, runner.Check())
}

func TestHistory_RecordsEachStep(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_snapshots.sql":   "CREATE TABLE a (id INTEGER);",
		"002_range_index.sql": "CREATE INDEX idx_a ON a (id);",
	}))
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	runner.now = func() time.Time { return at }

	_, err := runner.Up(nil)
	require.NoError(t, err)

	history, err := runner.History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, Applied{Version: 1, Name: "snapshots", AppliedAt: at}, history[0])
	assert.Equal(t, Applied{Version: 2, Name: "range_index", AppliedAt: at}, history[1])

	var tables int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'snapshot_schema'",
	).Scan(&tables))
	assert.Equal(t, 1, tables)
}

func TestUp_LogsStructuredProgress(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"001_a.sql": "CREATE TABLE a (id INTEGER);",
	}))

	type entry struct {
		msg     string
		keyvals []interface{}
	}
	var got []entry
	_, err := runner.Up(func(msg string, keyvals ...interface{}) {
		got = append(got, entry{msg, keyvals})
	})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "Migrating snapshot schema", got[0].msg)
	assert.Equal(t, []interface{}{"from", 0, "to", 1}, got[0].keyvals)
	assert.Equal(t, "Snapshot schema step applied", got[1].msg)
	assert.Equal(t, []interface{}{"version", 1, "name", "a"}, got[1].keyvals)
	assert.Equal(t, "Snapshot schema migrated", got[2].msg)
}

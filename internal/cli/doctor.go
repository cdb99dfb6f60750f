package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/julianstephens/calhours/internal/backup"
	"github.com/julianstephens/calhours/internal/client"
	"github.com/julianstephens/calhours/internal/keyring"
	"github.com/julianstephens/calhours/internal/migration"
	"github.com/julianstephens/calhours/internal/models"
	"github.com/julianstephens/calhours/internal/storage"
	"github.com/julianstephens/calhours/migrations"
)

var (
	passMark = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("❌")
	warnMark = color.New(color.FgYellow).Sprint("⚠")
	skipMark = color.New(color.Faint).Sprint("⊘")
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	w := ctx.out()
	fmt.Fprintln(w, "Running diagnostics...")
	fmt.Fprintln(w)

	hasError := false
	fail := func(name string, err error) {
		fmt.Fprintf(w, "%s %s: FAIL\n", failMark, name)
		fmt.Fprintf(w, "   Error: %v\n", err)
		hasError = true
	}

	// Check 1: snapshot storage reachable
	storeReady := false
	if ctx.NoHistory {
		fmt.Fprintf(w, "%s Snapshot storage: SKIPPED (history disabled)\n", skipMark)
	} else if err := checkStoreReachable(ctx); err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			fmt.Fprintf(w, "%s Snapshot storage: WARNING\n", warnMark)
			fmt.Fprintf(w, "   %v\n", err)
		} else {
			fail("Snapshot storage", err)
		}
	} else {
		fmt.Fprintf(w, "%s Snapshot storage: OK\n", passMark)
		storeReady = true
		defer ctx.Store.Close()
	}

	// Check 2: schema up to date (only if storage is reachable)
	if storeReady {
		if last, err := checkSchema(ctx); err != nil {
			fail("Schema version", err)
		} else if last.Version > 0 {
			fmt.Fprintf(w, "%s Schema version: OK (%d, %s applied %s)\n", passMark, last.Version, last.Name, humanize.Time(last.AppliedAt))
		} else {
			fmt.Fprintf(w, "%s Schema version: OK\n", passMark)
		}
	} else {
		fmt.Fprintf(w, "%s Schema version: SKIPPED (storage not reachable)\n", skipMark)
	}

	// Pre-migration backups (informational)
	if storeReady {
		if _, ok := ctx.Store.(*storage.SQLiteStore); ok {
			reportBackups(w, ctx.Store.GetConfigPath())
		}
	}

	// Check 3: bearer token (warning only)
	if err := checkToken(); err != nil {
		fmt.Fprintf(w, "%s Bearer token: WARNING\n", warnMark)
		fmt.Fprintf(w, "   %v\n", err)
	} else {
		fmt.Fprintf(w, "%s Bearer token: OK\n", passMark)
	}

	// Check 4: endpoint answers with well-formed data
	if n, err := checkEndpoint(ctx); err != nil {
		fail(fmt.Sprintf("Endpoint %s", ctx.Endpoint), err)
	} else {
		fmt.Fprintf(w, "%s Endpoint %s: OK (%d calendars this week)\n", passMark, ctx.Endpoint, n)
	}

	// Check 5: clock/timezone sanity
	if err := checkClockTimezone(w); err != nil {
		fail("Clock/timezone", err)
	} else {
		fmt.Fprintf(w, "%s Clock/timezone: OK\n", passMark)
	}

	fmt.Fprintln(w)
	if hasError {
		fmt.Fprintln(w, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Fprintln(w, "All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if sqliteStore, ok := ctx.Store.(*storage.SQLiteStore); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

// checkSchema returns the most recently applied step when the schema is
// current.
func checkSchema(ctx *Context) (migration.Applied, error) {
	sqliteStore, ok := ctx.Store.(*storage.SQLiteStore)
	if !ok {
		// JSON store doesn't have schema version
		return migration.Applied{}, nil
	}

	runner := migration.NewRunner(sqliteStore.GetDB(), migrations.FS)
	if err := runner.Check(); err != nil {
		return migration.Applied{}, err
	}
	currentVersion, err := runner.CurrentVersion()
	if err != nil {
		return migration.Applied{}, fmt.Errorf("failed to get current schema version: %w", err)
	}
	latestVersion, err := runner.LatestVersion()
	if err != nil {
		return migration.Applied{}, fmt.Errorf("failed to get latest schema version: %w", err)
	}
	if currentVersion < latestVersion {
		return migration.Applied{}, fmt.Errorf("migrations incomplete: current version %d, latest version %d", currentVersion, latestVersion)
	}

	history, err := runner.History()
	if err != nil {
		return migration.Applied{}, err
	}
	if len(history) == 0 {
		return migration.Applied{}, nil
	}
	return history[len(history)-1], nil
}

func reportBackups(w io.Writer, dbPath string) {
	backups, err := backup.NewManager(dbPath).ListBackups()
	switch {
	case err != nil:
		fmt.Fprintf(w, "%s Backups: WARNING\n", warnMark)
		fmt.Fprintf(w, "   %v\n", err)
	case len(backups) == 0:
		fmt.Fprintf(w, "%s Backups: none (created before schema upgrades)\n", skipMark)
	default:
		fmt.Fprintf(w, "%s Backups: %d, latest %s\n", passMark, len(backups), humanize.Time(backups[0].Timestamp))
	}
}

func checkToken() error {
	_, err := keyring.GetToken()
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("no token in keyring - requests are sent without Authorization unless --token is set")
	}
	return err
}

func checkEndpoint(ctx *Context) (int, error) {
	if ctx.Fetcher == nil {
		return 0, fmt.Errorf("no endpoint configured")
	}
	reqCtx := context.Background()
	if ctx.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, ctx.Timeout)
		defer cancel()
	}

	entries, err := ctx.Fetcher.FetchAggregate(reqCtx, models.RangeWeek)
	if err != nil {
		var fe *client.Error
		if errors.As(err, &fe) {
			return 0, errors.New(fe.Detail())
		}
		return 0, err
	}
	return len(entries), nil
}

func checkClockTimezone(w io.Writer) error {
	now := time.Now()

	// Check if time is in a reasonable range (after 2020 and before 2100)
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	// Ranges are bucketed by the server's calendar; UTC here may be intentional
	_, offset := now.Zone()
	if offset == 0 && now.Location() == time.UTC {
		fmt.Fprintf(w, "   Note: timezone is UTC\n")
	}
	return nil
}

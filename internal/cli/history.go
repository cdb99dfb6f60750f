package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"

	"github.com/julianstephens/calhours/internal/chart"
	"github.com/julianstephens/calhours/internal/models"
)

type HistoryCmd struct {
	Range string `help:"Only list snapshots for this range (week, month, year)."`
	Limit int    `help:"Maximum number of snapshots to list (0 for all)." default:"${history_limit}"`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	r, err := parseRangeFlag(c.Range)
	if err != nil {
		return err
	}

	if err := ctx.Store.Load(); err != nil {
		return err
	}
	defer ctx.Store.Close()

	snaps, err := ctx.Store.ListSnapshots(r, c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	w := ctx.out()
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No snapshots recorded yet.")
		return nil
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("FETCHED", "RANGE", "CALENDARS", "TOTAL", "TOP")
	for _, snap := range snaps {
		tbl.AddRow(
			humanize.Time(snap.FetchedAt),
			snap.Range.Title(),
			len(snap.Entries),
			chart.FormatHours(snap.TotalHours()),
			topCategory(snap.Entries),
		)
	}
	tbl.RightAlign(2)
	tbl.RightAlign(3)

	fmt.Fprintln(w, tbl)
	if c.Limit > 0 && len(snaps) == c.Limit {
		fmt.Fprintf(w, "\nShowing the %d most recent snapshots. Use --limit 0 to list all.\n", c.Limit)
	}
	return nil
}

// topCategory names the entry with the most hours; the first one wins ties.
func topCategory(entries []models.CategoryEntry) string {
	if len(entries) == 0 {
		return "-"
	}
	top := entries[0]
	for _, e := range entries[1:] {
		if e.Hours > top.Hours {
			top = e
		}
	}
	return top.Name
}

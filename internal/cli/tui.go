package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/calhours/internal/fetch"
	"github.com/julianstephens/calhours/internal/models"
	"github.com/julianstephens/calhours/internal/tui"
)

type TuiCmd struct {
	Range string `help:"Initial range (week, month, year)." default:"week"`
}

func (c *TuiCmd) Run(ctx *Context) error {
	r, err := parseRangeFlag(c.Range)
	if err != nil {
		return err
	}
	if r == "" {
		r = models.RangeWeek
	}

	store := ctx.history()
	if store != nil {
		defer store.Close()
	}

	controller := fetch.NewController(ctx.Fetcher, ctx.Timeout)
	p := tea.NewProgram(tui.NewModel(controller, r, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard exited: %w", err)
	}
	return nil
}

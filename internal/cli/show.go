package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/calhours/internal/chart"
	"github.com/julianstephens/calhours/internal/constants"
	"github.com/julianstephens/calhours/internal/fetch"
	"github.com/julianstephens/calhours/internal/logger"
	"github.com/julianstephens/calhours/internal/models"
	"github.com/julianstephens/calhours/internal/storage"
)

var showHeadingStyle = lipgloss.NewStyle().Bold(true)

// Swapped in tests.
var (
	isTerminal = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	}
	promptRange = promptRangeForm
)

type ShowCmd struct {
	Range  string `help:"Range to show (week, month, year). Prompts on a terminal when omitted."`
	All    bool   `help:"Show every range."`
	Cached bool   `help:"Render the latest stored snapshot instead of fetching."`
	Width  int    `help:"Output width in columns." default:"100"`
}

func (c *ShowCmd) Run(ctx *Context) error {
	ranges, err := c.ranges()
	if err != nil {
		return err
	}

	var states []fetch.State
	if c.Cached {
		states, err = cachedStates(ctx, ranges)
		if err != nil {
			return err
		}
	} else {
		states = fetchStates(ctx, ranges)
		recordStates(ctx, states)
	}

	var merr *multierror.Error
	w := ctx.out()
	for i, s := range states {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeState(w, s, c.Width, c.Cached)
		if s.Status == fetch.StatusError {
			merr = multierror.Append(merr, fmt.Errorf("%s: %s", s.Range, s.ErrorMessage))
		}
	}
	if merr != nil {
		merr.ErrorFormat = joinRangeErrors
	}
	return merr.ErrorOrNil()
}

func joinRangeErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (c *ShowCmd) ranges() ([]models.Range, error) {
	if c.All {
		return models.Ranges(), nil
	}
	r, err := parseRangeFlag(c.Range)
	if err != nil {
		return nil, err
	}
	if r != "" {
		return []models.Range{r}, nil
	}
	if !isTerminal() {
		return []models.Range{models.RangeWeek}, nil
	}
	r, err = promptRange()
	if err != nil {
		return nil, err
	}
	return []models.Range{r}, nil
}

func promptRangeForm() (models.Range, error) {
	choice := models.RangeWeek
	opts := make([]huh.Option[models.Range], 0, len(models.Ranges()))
	for _, r := range models.Ranges() {
		opts = append(opts, huh.NewOption(r.Title(), r))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[models.Range]().
				Title("Range").
				Options(opts...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("range prompt: %w", err)
	}
	return choice, nil
}

// fetchStates requests every range concurrently. Each goroutine owns its own
// controller and result slot.
func fetchStates(ctx *Context, ranges []models.Range) []fetch.State {
	states := make([]fetch.State, len(ranges))
	var g errgroup.Group
	for i, r := range ranges {
		g.Go(func() error {
			states[i] = fetch.NewController(ctx.Fetcher, ctx.Timeout).Fetch(r)
			return nil
		})
	}
	_ = g.Wait()
	return states
}

func cachedStates(ctx *Context, ranges []models.Range) ([]fetch.State, error) {
	if ctx.NoHistory {
		return nil, errors.New("--cached cannot be combined with --no-history")
	}
	if err := ctx.Store.Load(); err != nil {
		return nil, err
	}
	defer ctx.Store.Close()

	states := make([]fetch.State, 0, len(ranges))
	for _, r := range ranges {
		snap, err := ctx.Store.LatestSnapshot(r)
		switch {
		case err == nil:
			states = append(states, fetch.State{
				Status:    fetch.StatusSuccess,
				Range:     r,
				Data:      snap.Entries,
				SettledAt: snap.FetchedAt,
			})
		case errors.Is(err, storage.ErrNoSnapshot):
			states = append(states, fetch.State{
				Status:       fetch.StatusError,
				Range:        r,
				ErrorMessage: constants.MsgNoSnapshot,
			})
		default:
			return nil, fmt.Errorf("failed to read snapshot for %s: %w", r, err)
		}
	}
	return states, nil
}

func recordStates(ctx *Context, states []fetch.State) {
	store := ctx.history()
	if store == nil {
		return
	}
	defer store.Close()

	for _, s := range states {
		snap, ok := s.Snapshot()
		if !ok {
			continue
		}
		if err := store.SaveSnapshot(snap); err != nil {
			logger.Warn("Failed to save snapshot", "range", s.Range, "error", err)
		}
	}
}

func writeState(w io.Writer, s fetch.State, width int, cached bool) {
	fmt.Fprintln(w, showHeadingStyle.Render(fmt.Sprintf("%s: %s", constants.PageTitle, s.Range.Title())))
	fmt.Fprintln(w)

	switch {
	case s.Status == fetch.StatusError:
		fmt.Fprintf(w, "Error: %s\n", s.ErrorMessage)
		return
	case len(s.Data) == 0:
		fmt.Fprintln(w, constants.MsgNoData)
	default:
		fmt.Fprintln(w, chart.RenderDashboard(chart.Project(s.Data), width))
	}

	label := "Updated"
	if cached {
		label = "Cached"
	}
	fmt.Fprintf(w, "\n%s %s\n", label, humanize.Time(s.SettledAt))
}

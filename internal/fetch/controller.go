// Package fetch owns the request lifecycle for the dashboard: one current
// request at a time, with results from superseded requests dropped.
package fetch

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/julianstephens/calhours/internal/client"
	"github.com/julianstephens/calhours/internal/constants"
	"github.com/julianstephens/calhours/internal/logger"
	"github.com/julianstephens/calhours/internal/models"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the request lifecycle. Data is only set in StatusSuccess and
// ErrorMessage only in StatusError.
type State struct {
	Status       Status
	Range        models.Range
	Data         []models.CategoryEntry
	ErrorMessage string
	Tag          string
	SettledAt    time.Time
}

// SettledMsg carries the outcome of one request back to the event loop.
type SettledMsg struct {
	Tag   string
	Range models.Range
	Data  []models.CategoryEntry
	Err   error
}

// Controller is not safe for concurrent use; every method must be called from
// the Bubble Tea update loop. Only the returned commands run elsewhere.
type Controller struct {
	fetcher client.Fetcher
	timeout time.Duration
	state   State
	now     func() time.Time
}

func NewController(fetcher client.Fetcher, timeout time.Duration) *Controller {
	return &Controller{
		fetcher: fetcher,
		timeout: timeout,
		state:   State{Status: StatusIdle},
		now:     time.Now,
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	s := c.state
	s.Data = copyEntries(c.state.Data)
	return s
}

// copyEntries keeps nil as nil and an empty payload as empty.
func copyEntries(in []models.CategoryEntry) []models.CategoryEntry {
	if in == nil {
		return nil
	}
	out := make([]models.CategoryEntry, len(in))
	copy(out, in)
	return out
}

// Load starts a new request for r, discarding any previous data or error.
// The returned command performs the fetch and yields a SettledMsg.
func (c *Controller) Load(r models.Range) tea.Cmd {
	tag := uuid.NewString()
	c.state = State{
		Status: StatusLoading,
		Range:  r,
		Tag:    tag,
	}
	logger.Debug("Fetch started", "range", r, "tag", tag)

	fetcher, timeout := c.fetcher, c.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		data, err := fetcher.FetchAggregate(ctx, r)
		return SettledMsg{Tag: tag, Range: r, Data: data, Err: err}
	}
}

// Retry re-issues the request for the current range. It is a no-op while
// idle.
func (c *Controller) Retry() tea.Cmd {
	if c.state.Status == StatusIdle {
		return nil
	}
	return c.Load(c.state.Range)
}

// Settle applies msg if it belongs to the current request and reports
// whether it did. Settlements for superseded requests are dropped.
func (c *Controller) Settle(msg SettledMsg) bool {
	if c.state.Status != StatusLoading || msg.Tag != c.state.Tag {
		logger.Debug("Discarding stale result", "range", msg.Range, "tag", msg.Tag, "current", c.state.Tag)
		return false
	}

	settled := State{
		Range:     c.state.Range,
		Tag:       c.state.Tag,
		SettledAt: c.now(),
	}

	if msg.Err != nil {
		settled.Status = StatusError
		settled.ErrorMessage = userMessage(msg.Err)
		logFailure(msg)
	} else {
		settled.Status = StatusSuccess
		settled.Data = msg.Data
		if settled.Data == nil {
			settled.Data = []models.CategoryEntry{}
		}
		logger.Info("Fetch succeeded", "range", msg.Range, "entries", len(settled.Data))
	}

	c.state = settled
	return true
}

func userMessage(err error) string {
	var fe *client.Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return constants.MsgFetchFailed
}

func logFailure(msg SettledMsg) {
	var fe *client.Error
	if errors.As(msg.Err, &fe) {
		logger.Warn("Fetch failed", "range", msg.Range, "kind", fe.Kind, "status", fe.Status, "detail", fe.Detail())
		return
	}
	logger.Warn("Fetch failed", "range", msg.Range, "error", msg.Err)
}

// Snapshot converts a successful state into a storable record.
func (s State) Snapshot() (models.Snapshot, bool) {
	if s.Status != StatusSuccess {
		return models.Snapshot{}, false
	}
	return models.Snapshot{
		ID:        uuid.NewString(),
		Range:     s.Range,
		FetchedAt: s.SettledAt,
		Entries:   copyEntries(s.Data),
	}, true
}

// Fetch runs one request for r to completion on the calling goroutine and
// returns the settled state. Used outside the Bubble Tea event loop.
func (c *Controller) Fetch(r models.Range) State {
	if settled, ok := c.Load(r)().(SettledMsg); ok {
		c.Settle(settled)
	}
	return c.State()
}

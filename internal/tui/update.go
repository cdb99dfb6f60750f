package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/calhours/internal/fetch"
	"github.com/julianstephens/calhours/internal/logger"
	"github.com/julianstephens/calhours/internal/models"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Week):
			changed := m.selector.Select(models.RangeWeek)
			return m.selectRange(changed)
		case key.Matches(msg, m.keys.Month):
			changed := m.selector.Select(models.RangeMonth)
			return m.selectRange(changed)
		case key.Matches(msg, m.keys.Year):
			changed := m.selector.Select(models.RangeYear)
			return m.selectRange(changed)
		case key.Matches(msg, m.keys.Next):
			changed := m.selector.Next()
			return m.selectRange(changed)
		case key.Matches(msg, m.keys.Prev):
			changed := m.selector.Prev()
			return m.selectRange(changed)
		case key.Matches(msg, m.keys.Retry):
			if cmd := m.controller.Retry(); cmd != nil {
				return m, tea.Batch(cmd, m.spinner.Tick)
			}
		}

	case fetch.SettledMsg:
		if m.controller.Settle(msg) {
			m.recordSnapshot()
		}

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// selectRange restarts the fetch cycle when the selector actually moved.
func (m Model) selectRange(changed bool) (tea.Model, tea.Cmd) {
	if !changed {
		return m, nil
	}
	return m, tea.Batch(m.controller.Load(m.selector.Active()), m.spinner.Tick)
}

func (m Model) loading() bool {
	s := m.controller.State().Status
	return s == fetch.StatusIdle || s == fetch.StatusLoading
}

func (m Model) recordSnapshot() {
	if m.store == nil {
		return
	}
	snap, ok := m.controller.State().Snapshot()
	if !ok {
		return
	}
	if err := m.store.SaveSnapshot(snap); err != nil {
		logger.Warn("Failed to save snapshot", "range", snap.Range, "error", err)
	}
}

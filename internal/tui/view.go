package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/julianstephens/calhours/internal/chart"
	"github.com/julianstephens/calhours/internal/constants"
	"github.com/julianstephens/calhours/internal/fetch"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	ui := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(constants.PageTitle),
		m.selector.View(),
		contentStyle.Render(m.viewContent()),
		m.help.View(m.keys),
	)
	return docStyle.Render(ui)
}

func (m Model) viewContent() string {
	s := m.controller.State()

	switch s.Status {
	case fetch.StatusError:
		return errorBoxStyle.Render(s.ErrorMessage)
	case fetch.StatusSuccess:
		if len(s.Data) == 0 {
			return mutedStyle.Render(constants.MsgNoData)
		}
		// Projection is recomputed from the current data on every render.
		charts := chart.RenderDashboard(chart.Project(s.Data), m.chartWidth())
		return lipgloss.JoinVertical(lipgloss.Left,
			charts,
			"",
			mutedStyle.Render(fmt.Sprintf("Updated %s", humanize.Time(s.SettledAt))),
		)
	default:
		return fmt.Sprintf("%s Loading data...", m.spinner.View())
	}
}

func (m Model) chartWidth() int {
	if m.width == 0 {
		return 0
	}
	// docStyle padding on both sides.
	return max(m.width-4, 0)
}

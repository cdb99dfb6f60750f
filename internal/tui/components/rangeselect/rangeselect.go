package rangeselect

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/calhours/internal/models"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)
)

// Model holds the active aggregation window.
type Model struct {
	ranges []models.Range
	active int
}

// New starts on initial, or on the first range if initial is not selectable.
func New(initial models.Range) Model {
	m := Model{ranges: models.Ranges()}
	for i, r := range m.ranges {
		if r == initial {
			m.active = i
		}
	}
	return m
}

func (m Model) Ranges() []models.Range {
	return append([]models.Range(nil), m.ranges...)
}

func (m Model) Active() models.Range {
	return m.ranges[m.active]
}

// Select makes r active and reports whether it changed. Selecting the active
// range, or one outside the enumeration, changes nothing.
func (m *Model) Select(r models.Range) bool {
	for i, candidate := range m.ranges {
		if candidate != r {
			continue
		}
		if i == m.active {
			return false
		}
		m.active = i
		return true
	}
	return false
}

// Next moves one tab to the right, wrapping around.
func (m *Model) Next() bool {
	return m.Select(m.ranges[(m.active+1)%len(m.ranges)])
}

// Prev moves one tab to the left, wrapping around.
func (m *Model) Prev() bool {
	return m.Select(m.ranges[(m.active-1+len(m.ranges))%len(m.ranges)])
}

func (m Model) View() string {
	tabs := make([]string, 0, len(m.ranges))
	for i, r := range m.ranges {
		if i == m.active {
			tabs = append(tabs, activeTabStyle.Render(r.Title()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(r.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

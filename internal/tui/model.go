package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/calhours/internal/fetch"
	"github.com/julianstephens/calhours/internal/models"
	"github.com/julianstephens/calhours/internal/storage"
	"github.com/julianstephens/calhours/internal/tui/components/rangeselect"
)

// Model is the dashboard. All request state lives in the controller and is
// only touched from Update.
type Model struct {
	controller *fetch.Controller
	selector   rangeselect.Model
	store      storage.Provider
	keys       KeyMap
	help       help.Model
	spinner    spinner.Model
	quitting   bool
	width      int
	height     int
}

// NewModel builds the dashboard. store may be nil to skip snapshot history.
func NewModel(controller *fetch.Controller, initial models.Range, store storage.Provider) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		controller: controller,
		selector:   rangeselect.New(initial),
		store:      store,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
	}
}

// Init starts the first fetch for the initial range.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.controller.Load(m.selector.Active()))
}

// State exposes the controller state for callers and tests.
func (m Model) State() fetch.State {
	return m.controller.State()
}

// ActiveRange is the range highlighted in the selector.
func (m Model) ActiveRange() models.Range {
	return m.selector.Active()
}

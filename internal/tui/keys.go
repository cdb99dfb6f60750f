package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Week  key.Binding
	Month key.Binding
	Year  key.Binding
	Next  key.Binding
	Prev  key.Binding
	Retry key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Retry, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Week, k.Month, k.Year},
		{k.Next, k.Prev, k.Retry},
		{k.Help, k.Quit},
	}
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Week: key.NewBinding(
			key.WithKeys("w", "1"),
			key.WithHelp("w", "week"),
		),
		Month: key.NewBinding(
			key.WithKeys("m", "2"),
			key.WithHelp("m", "month"),
		),
		Year: key.NewBinding(
			key.WithKeys("y", "3"),
			key.WithHelp("y", "year"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab/→", "next range"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("shift+tab/←", "prev range"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

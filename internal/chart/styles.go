package chart

import "github.com/charmbracelet/lipgloss"

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	emptyRingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))
)

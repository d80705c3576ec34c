package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorBlue   = lipgloss.Color("39")
	ColorGreen  = lipgloss.Color("42")
	ColorYellow = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
	ColorGray   = lipgloss.Color("240")
	ColorWhite  = lipgloss.Color("252")
)

var (
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	activeSectionStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBlue).
				Padding(0, 1)

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

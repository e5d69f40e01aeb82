package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary  = lipgloss.Color("#FBBF24")
	colorMuted    = lipgloss.Color("#A0A0B0")
	colorEmpty    = lipgloss.Color("#4A4A5A")
	colorError    = lipgloss.Color("#FC8181")
	colorDimStart = lipgloss.Color("#6A6A8A")

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	styleLevel = lipgloss.NewStyle().
			Bold(true).
			Width(6).
			Align(lipgloss.Right)

	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)
	styleError = lipgloss.NewStyle().Foreground(colorError)
	styleEmpty = lipgloss.NewStyle().Foreground(colorEmpty)
	styleDim   = lipgloss.NewStyle().Foreground(colorDimStart)
	styleLit   = lipgloss.NewStyle().Foreground(colorPrimary)

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorEmpty).
			Padding(0, 1)
)

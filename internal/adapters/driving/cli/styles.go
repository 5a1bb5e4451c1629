package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Colour palette shared by table output.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	mutedStyle  = lipgloss.NewStyle().Foreground(colourMuted)
	highStyle   = lipgloss.NewStyle().Foreground(colourSuccess)
	midStyle    = lipgloss.NewStyle().Foreground(colourWarning)
	lowStyle    = lipgloss.NewStyle().Foreground(colourError)

	plainStyle = lipgloss.NewStyle()
)

// scoreStyle picks a colour for a score in [0, 1].
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 0.7:
		return highStyle
	case score >= 0.4:
		return midStyle
	default:
		return lowStyle
	}
}

// cell pads s to width before styling so ANSI codes do not break alignment.
func cell(style lipgloss.Style, s string, width int) string {
	return style.Render(lipgloss.NewStyle().Width(width).Render(s))
}

// Package tui is the interactive front-end: a Bubble Tea form that
// collects local input files plus the stage parameters, queues runs
// against the shared pipeline, and displays coarse phase progress.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for form field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(22)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// SuccessStyle for completed runs and finished phases.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// ActiveStyle for the phase currently in progress.
	ActiveStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// ErrorStyle for failed runs and validation errors.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// MutedStyle for pending phases and secondary text.
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// BoxStyle for bordered containers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// HelpStyle for the key help line.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// StatusStyle returns a style for a terminal run status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "ok":
		return SuccessStyle
	case "error":
		return ErrorStyle
	default:
		return ValueStyle
	}
}

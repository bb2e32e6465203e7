package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

// Tick renders a green check mark for successful operations.
func Tick() string {
	return successStyle.Render("✓")
}

// Cross renders a red cross for failed operations.
func Cross() string {
	return errorStyle.Render("✗")
}

// Success renders text in the success color.
func Success(text string) string {
	return successStyle.Render(text)
}

// Error renders text in the error color.
func Error(text string) string {
	return errorStyle.Render(text)
}

// Dim renders secondary text (disabled mods, hints).
func Dim(text string) string {
	return dimStyle.Render(text)
}

// Title renders a bold heading.
func Title(text string) string {
	return titleStyle.Render(text)
}

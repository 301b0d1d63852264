package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorGray   = lipgloss.Color("8")
	colorRed    = lipgloss.Color("9")
	colorGreen  = lipgloss.Color("10")
	colorYellow = lipgloss.Color("11")
)

// RenderConfig holds styling configuration for the shortcut manager.
type RenderConfig struct {
	// TitleStyle is the style of the header line.
	TitleStyle lipgloss.Style

	// LabelStyle is the style of field labels.
	LabelStyle lipgloss.Style

	// FocusedLabelStyle is the style of the label of the focused field.
	FocusedLabelStyle lipgloss.Style

	// GhostStyle is the style of the suggestion text after the caret.
	GhostStyle lipgloss.Style

	// CursorStyle is the style of the caret drawn over a suggestion.
	CursorStyle lipgloss.Style

	// ErrorStyle and InfoStyle style the status line.
	ErrorStyle lipgloss.Style
	InfoStyle  lipgloss.Style

	// TableStyle is the container around the shortcut table.
	TableStyle lipgloss.Style
}

// DefaultRenderConfig returns a RenderConfig with sensible default styles.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		TitleStyle:        lipgloss.NewStyle().Bold(true).Foreground(colorYellow),
		LabelStyle:        lipgloss.NewStyle().Width(11),
		FocusedLabelStyle: lipgloss.NewStyle().Width(11).Bold(true).Foreground(colorYellow),
		GhostStyle:        lipgloss.NewStyle().Foreground(colorGray),
		CursorStyle:       lipgloss.NewStyle().Foreground(colorGray).Reverse(true),
		ErrorStyle:        lipgloss.NewStyle().Foreground(colorRed),
		InfoStyle:         lipgloss.NewStyle().Foreground(colorGreen),
		TableStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray),
	}
}

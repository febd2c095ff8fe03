package cli

import (
	"github.com/charmbracelet/lipgloss"

	tuistyles "github.com/studesprit/libsearch/internal/adapters/driving/tui/styles"
)

// Styles contains pre-configured lipgloss styles for command output.
type Styles struct {
	// Title style for headers.
	Title lipgloss.Style

	// Subtitle style for section headers.
	Subtitle lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Score style for similarity values.
	Score lipgloss.Style

	// Success style for success messages.
	Success lipgloss.Style

	// Warning style for warning messages.
	Warning lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style
}

// NewStyles creates output styles from the shared palette.
func NewStyles(theme *tuistyles.Theme) *Styles {
	if theme == nil {
		theme = tuistyles.DefaultTheme()
	}

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Score: lipgloss.NewStyle().
			Foreground(theme.Secondary),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Title:    plain,
		Subtitle: plain,
		Muted:    plain,
		Score:    plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
	}
}

// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the TUI palette.
type Theme struct {
	Accent  lipgloss.Color // headings, selection, answer rule
	Link    lipgloss.Color // source references
	Text    lipgloss.Color
	Dim     lipgloss.Color // hints, metadata, status bar text
	Good    lipgloss.Color
	Caution lipgloss.Color // out-of-sync warnings, chunk positions
	Bad     lipgloss.Color
	Frame   lipgloss.Color // input border
	Bar     lipgloss.Color // status bar background
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#F59E0B"),
		Link:    lipgloss.Color("#38BDF8"),
		Text:    lipgloss.Color("#CDD6F4"),
		Dim:     lipgloss.Color("#6C7086"),
		Good:    lipgloss.Color("#A6E3A1"),
		Caution: lipgloss.Color("#F9E2AF"),
		Bad:     lipgloss.Color("#F38BA8"),
		Frame:   lipgloss.Color("#45475A"),
		Bar:     lipgloss.Color("#181825"),
	}
}

// Styles are the rendering roles used across views.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style
	Selected lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Answer draws a rule down the left of a generated answer.
	Answer    lipgloss.Style
	Reference lipgloss.Style
	// Position renders chunk positions and retrieval distances.
	Position lipgloss.Style
}

// NewStyles builds styles from t, falling back to DefaultTheme.
func NewStyles(t *Theme) *Styles {
	if t == nil {
		t = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return &Styles{
		Title:    fg(t.Accent).Bold(true),
		Subtitle: fg(t.Link).Bold(true),
		Normal:   fg(t.Text),
		Muted:    fg(t.Dim),
		Help:     fg(t.Dim).Italic(true),
		Selected: fg(t.Text).Background(t.Accent).Bold(true),

		Error:   fg(t.Bad),
		Success: fg(t.Good),
		Warning: fg(t.Caution).Bold(true),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Frame).
			Padding(0, 1),
		StatusBar: fg(t.Dim).Background(t.Bar).Padding(0, 1),

		Answer: fg(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(t.Accent).
			PaddingLeft(1),
		Reference: fg(t.Link),
		Position:  fg(t.Caution),
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(nil)
}

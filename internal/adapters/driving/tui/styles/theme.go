// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette. Each colour adapts to light and dark terminals.
type Theme struct {
	Accent    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Subtle    lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Bad       lipgloss.AdaptiveColor
	Edge      lipgloss.AdaptiveColor
	Bar       lipgloss.AdaptiveColor
}

// DefaultTheme is a blue and cyan palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#3B9EDB"},
		Highlight: lipgloss.AdaptiveColor{Light: "#00838F", Dark: "#06B6D4"},
		Text:      lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"},
		Subtle:    lipgloss.AdaptiveColor{Light: "#8C8FA1", Dark: "#6C7086"},
		Good:      lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"},
		Caution:   lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"},
		Bad:       lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"},
		Edge:      lipgloss.AdaptiveColor{Light: "#BCC0CC", Dark: "#45475A"},
		Bar:       lipgloss.AdaptiveColor{Light: "#E6E9EF", Dark: "#181825"},
	}
}

// Similarity bands for Score.
const (
	StrongMatch = 0.75
	FairMatch   = 0.5
)

// Styles are the rendered styles shared by every view.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style

	// InputField frames the search box, Border any other panel.
	InputField lipgloss.Style
	Border     lipgloss.Style
	StatusBar  lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	panel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Edge)

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Accent).Bold(true),
		Subtitle:   fg(theme.Highlight).Bold(true),
		Normal:     fg(theme.Text),
		Muted:      fg(theme.Subtle),
		Selected:   fg(theme.Text).Background(theme.Accent).Bold(true),
		Error:      fg(theme.Bad),
		Success:    fg(theme.Good),
		Warning:    fg(theme.Caution),
		Help:       fg(theme.Subtle),
		InputField: panel.Padding(0, 1),
		Border:     panel,
		StatusBar:  fg(theme.Subtle).Background(theme.Bar).Padding(0, 1),
	}
}

// DefaultStyles is NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette behind s.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Group renders "#name" in the group's display colour, or the highlight
// colour when color is empty.
func (s *Styles) Group(name, color string) string {
	var c lipgloss.TerminalColor = s.theme.Highlight
	if color != "" {
		c = lipgloss.Color(color)
	}
	return lipgloss.NewStyle().Foreground(c).Render("#" + name)
}

// ScoreStyle picks the style of a cosine similarity.
func (s *Styles) ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= StrongMatch:
		return s.Success
	case score >= FairMatch:
		return s.Warning
	default:
		return s.Muted
	}
}

// Score renders a similarity with three decimals.
func (s *Styles) Score(score float64) string {
	return s.ScoreStyle(score).Render(fmt.Sprintf("%.3f", score))
}

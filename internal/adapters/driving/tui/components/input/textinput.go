// Package input holds the search box and its query syntax.
package input

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
)

const (
	maxQueryLen = 256
	maxHistory  = 50
	minWidth    = 20
)

// SearchInput is a single-line query box with a recall history.
// ctrl+p and ctrl+n step through earlier submissions.
type SearchInput struct {
	field  textinput.Model
	styles *styles.Styles
	width  int

	history []string
	// recall indexes history while stepping; len(history) means the draft.
	recall int
	draft  string
}

// NewSearchInput creates a focused input.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	field := textinput.New()
	field.Prompt = "/ "
	field.Placeholder = "what are you looking for? (group:name narrows)"
	field.CharLimit = maxQueryLen
	field.Width = 50
	field.Focus()

	return &SearchInput{field: field, styles: s, width: 50}
}

// Init starts the cursor blinking.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update edits the query or steps through history.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && s.field.Focused() {
		switch k.String() {
		case "ctrl+p":
			s.step(-1)
			return s, nil
		case "ctrl+n":
			s.step(1)
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.field, cmd = s.field.Update(msg)
	return s, cmd
}

func (s *SearchInput) step(delta int) {
	if len(s.history) == 0 {
		return
	}
	if s.recall == len(s.history) {
		s.draft = s.field.Value()
	}
	s.recall = min(max(s.recall+delta, 0), len(s.history))
	if s.recall == len(s.history) {
		s.field.SetValue(s.draft)
	} else {
		s.field.SetValue(s.history[s.recall])
	}
	s.field.CursorEnd()
}

// Remember appends query to the history unless it repeats the last entry.
func (s *SearchInput) Remember(query string) {
	query = strings.TrimSpace(query)
	if query != "" && (len(s.history) == 0 || s.history[len(s.history)-1] != query) {
		s.history = append(s.history, query)
		if len(s.history) > maxHistory {
			s.history = slices.Clone(s.history[len(s.history)-maxHistory:])
		}
	}
	s.recall = len(s.history)
	s.draft = ""
}

// History returns the remembered queries, oldest first.
func (s *SearchInput) History() []string {
	return s.history
}

// View renders the box, with the group filters of the current text below it.
func (s *SearchInput) View() string {
	box := s.styles.InputField.Render(s.field.View())
	_, groups := ParseQuery(s.field.Value())
	if len(groups) == 0 {
		return box
	}
	chips := make([]string, len(groups))
	for i, g := range groups {
		chips[i] = s.styles.Group(g, "")
	}
	return lipgloss.JoinVertical(lipgloss.Left, box, " "+s.styles.Muted.Render("in ")+strings.Join(chips, " "))
}

// Value returns the raw text.
func (s *SearchInput) Value() string { return s.field.Value() }

// SetValue replaces the text.
func (s *SearchInput) SetValue(value string) { s.field.SetValue(value) }

// Focus gives the box the cursor.
func (s *SearchInput) Focus() tea.Cmd { return s.field.Focus() }

// Blur releases the cursor.
func (s *SearchInput) Blur() { s.field.Blur() }

// Focused reports whether the box has the cursor.
func (s *SearchInput) Focused() bool { return s.field.Focused() }

// SetWidth sizes the box to width, leaving room for its border.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.field.Width = max(width-10, minWidth)
}

// Width returns the width last set.
func (s *SearchInput) Width() int { return s.width }

// Reset clears the text and leaves history intact.
func (s *SearchInput) Reset() {
	s.field.Reset()
	s.recall = len(s.history)
	s.draft = ""
}

// ParseQuery splits raw input into query text and group filters.
// Words of the form group:name or g:name become filters, once each;
// the rest is joined back into the query.
func ParseQuery(raw string) (query string, groups []string) {
	words := strings.Fields(raw)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		name, ok := strings.CutPrefix(w, "group:")
		if !ok {
			name, ok = strings.CutPrefix(w, "g:")
		}
		if !ok || name == "" {
			kept = append(kept, w)
			continue
		}
		if !slices.Contains(groups, name) {
			groups = append(groups, name)
		}
	}
	return strings.Join(kept, " "), groups
}

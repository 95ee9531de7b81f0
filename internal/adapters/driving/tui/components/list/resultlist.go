// Package list renders ranked search results.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// linesPerResult is the height budget of one rendered result.
const linesPerResult = 3

// ResultList is a scrolling list of search results with one selected row.
type ResultList struct {
	styles *styles.Styles
	keys   *keymap.KeyMap

	results []domain.SearchResult
	cursor  int
	// top is the first visible result; it moves only when the cursor leaves the window.
	top int

	width, height int
}

// NewResultList creates an empty list. Nil arguments use the defaults.
func NewResultList(s *styles.Styles, km *keymap.KeyMap) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &ResultList{styles: s, keys: km, width: 80, height: 10}
}

// Init is a no-op.
func (r *ResultList) Init() tea.Cmd { return nil }

// Update moves the cursor on navigation keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch {
	case key.Matches(k, r.keys.Up):
		r.Move(-1)
	case key.Matches(k, r.keys.Down):
		r.Move(1)
	case key.Matches(k, r.keys.PageUp):
		r.Move(-r.visible())
	case key.Matches(k, r.keys.PageDown):
		r.Move(r.visible())
	case key.Matches(k, r.keys.Top):
		r.Move(-len(r.results))
	case key.Matches(k, r.keys.Bottom):
		r.Move(len(r.results))
	}
	return r, nil
}

// Move shifts the cursor by delta, clamped to the list.
func (r *ResultList) Move(delta int) {
	if len(r.results) == 0 {
		return
	}
	r.cursor = min(max(r.cursor+delta, 0), len(r.results)-1)
	r.scroll()
}

func (r *ResultList) scroll() {
	n := r.visible()
	if r.cursor < r.top {
		r.top = r.cursor
	}
	if r.cursor >= r.top+n {
		r.top = r.cursor - n + 1
	}
}

func (r *ResultList) visible() int {
	return max((r.height-2)/linesPerResult, 1)
}

// View renders the header and the visible window of results.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	end := min(r.top+r.visible(), len(r.results))
	header := fmt.Sprintf("Results (%d)", len(r.results))
	if r.top > 0 || end < len(r.results) {
		header += fmt.Sprintf("  %d-%d", r.top+1, end)
	}

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(header))
	b.WriteString("\n")
	for i := r.top; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(r.row(i))
	}
	return b.String()
}

// row renders "[rank] title.ext #segment  score", the groups, and a one-line preview.
func (r *ResultList) row(i int) string {
	res := r.results[i]

	title := res.Document.Title
	if title == "" {
		title = "(Untitled)"
	}
	if res.Document.FileType != "" {
		title += "." + res.Document.FileType
	}
	head := fmt.Sprintf("[%d] %s #%d", i+1, title, res.Segment.Index)
	titleWidth := max(r.width-12, 10)
	head = fmt.Sprintf("%-*s", titleWidth, ansi.Truncate(head, titleWidth, "..."))

	var line string
	if i == r.cursor {
		line = "> " + r.styles.Selected.Render(head) + "  " + r.styles.Score(res.Score)
	} else {
		line = "  " + r.styles.Normal.Render(head) + "  " + r.styles.Score(res.Score)
	}

	if len(res.Document.Groups) > 0 {
		tags := make([]string, len(res.Document.Groups))
		for j, g := range res.Document.Groups {
			tags[j] = r.styles.Group(g, "")
		}
		line += "  " + strings.Join(tags, " ")
	}

	preview := strings.Join(strings.Fields(res.Segment.Content), " ")
	preview = ansi.Truncate(preview, max(r.width-6, 20), "...")
	return line + "\n" + r.styles.Muted.Render("    "+preview)
}

// SetResults replaces the list and selects the first result.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.cursor = 0
	r.top = 0
}

// Results returns the listed results.
func (r *ResultList) Results() []domain.SearchResult { return r.results }

// Selected returns the cursor index.
func (r *ResultList) Selected() int { return r.cursor }

// SetSelected moves the cursor to index when it is in range.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.cursor = index
		r.scroll()
	}
}

// SelectedResult returns the result under the cursor, or nil.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.cursor >= len(r.results) {
		return nil
	}
	return &r.results[r.cursor]
}

// MoveUp moves the cursor one row up.
func (r *ResultList) MoveUp() { r.Move(-1) }

// MoveDown moves the cursor one row down.
func (r *ResultList) MoveDown() { r.Move(1) }

// SetDimensions sizes the list and keeps the cursor visible.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
	r.scroll()
}

// Width returns the width last set.
func (r *ResultList) Width() int { return r.width }

// Height returns the height last set.
func (r *ResultList) Height() int { return r.height }

// Count returns the number of results.
func (r *ResultList) Count() int { return len(r.results) }

// IsEmpty reports whether there are no results.
func (r *ResultList) IsEmpty() bool { return len(r.results) == 0 }

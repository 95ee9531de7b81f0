// Package search is the query screen: an input box over a ranked result list.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

// ErrNoSearchService is reported when the view was built without a search port.
var ErrNoSearchService = errors.New("search service is required")

type mode int

const (
	modeTyping mode = iota
	modeBrowsing
)

// chrome is the number of rows used by the title, input and status bar.
const chrome = 10

// View is the search screen.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	searcher driving.SearchService
	options  domain.SearchOptions
	ctx      context.Context

	mode      mode
	lastQuery string
	err       error

	width, height int
	ready         bool
}

// NewView creates the screen. opts supplies limit and threshold; groups
// typed as group:name replace opts.Groups for that query.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	searcher driving.SearchService,
	opts domain.SearchOptions,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewSearchInput(s),
		list:      list.NewResultList(s, km),
		statusbar: status.NewBar(s, km),
		searcher:  searcher,
		options:   opts,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context passed to Search.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update routes keys by mode and applies search results.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	case messages.SearchCompleted:
		v.applyResults(msg)
		return v, nil
	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, v.keymap.Back) {
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}

	if v.mode == modeTyping {
		if !key.Matches(msg, v.keymap.Search) {
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return cmd
		}
		raw := v.input.Value()
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		v.input.Remember(raw)
		v.browse()
		v.statusbar.SetState(status.StateSearching)
		return v.performSearch(raw)
	}

	switch {
	case key.Matches(msg, v.keymap.Open):
		res := v.list.SelectedResult()
		if res == nil {
			return nil
		}
		doc := res.Document
		return func() tea.Msg { return messages.DocumentSelected{Document: doc} }
	case key.Matches(msg, v.keymap.NewSearch):
		v.focusInput()
		v.input.SetValue("")
		return nil
	}
	v.list, _ = v.list.Update(msg)
	return nil
}

func (v *View) browse() {
	v.mode = modeBrowsing
	v.input.Blur()
}

func (v *View) focusInput() {
	v.mode = modeTyping
	v.input.Focus()
}

// performSearch runs raw with its group filters lifted into the options.
func (v *View) performSearch(raw string) tea.Cmd {
	query, groups := input.ParseQuery(raw)
	opts := v.options
	if len(groups) > 0 {
		opts.Groups = groups
	}
	ctx, searcher := v.ctx, v.searcher

	return func() tea.Msg {
		if searcher == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		if query == "" {
			return messages.SearchCompleted{Query: query, Results: []domain.SearchResult{}}
		}
		start := time.Now()
		results, err := searcher.Search(ctx, query, opts)
		return messages.SearchCompleted{Query: query, Results: results, Elapsed: time.Since(start), Err: err}
	}
}

func (v *View) applyResults(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}
	v.err = nil
	v.lastQuery = msg.Query
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResults(len(msg.Results), msg.Elapsed)
	v.browse()
}

func (v *View) fail(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	parts := []string{v.styles.Title.Render("vectorlite"), "", v.input.View(), ""}
	if v.err != nil {
		parts = append(parts, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	parts = append(parts, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions sizes the screen and its components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-chrome)
	v.statusbar.SetWidth(width)
}

// Width returns the width last set.
func (v *View) Width() int { return v.width }

// Height returns the height last set.
func (v *View) Height() int { return v.height }

// Ready reports whether a size has been received.
func (v *View) Ready() bool { return v.ready }

// Query returns the text in the input box.
func (v *View) Query() string { return v.input.Value() }

// SetQuery replaces the text in the input box.
func (v *View) SetQuery(query string) { v.input.SetValue(query) }

// LastQuery returns the query text, without group filters, of the shown results.
func (v *View) LastQuery() string { return v.lastQuery }

// Options returns the base search options.
func (v *View) Options() domain.SearchOptions { return v.options }

// Results returns the shown results.
func (v *View) Results() []domain.SearchResult { return v.list.Results() }

// SelectedIndex returns the cursor position in the results.
func (v *View) SelectedIndex() int { return v.list.Selected() }

// SelectedResult returns the result under the cursor, or nil.
func (v *View) SelectedResult() *domain.SearchResult { return v.list.SelectedResult() }

// Err returns the last search error.
func (v *View) Err() error { return v.err }

// ClearError drops the last error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.Clear()
}

// Reset empties the input and results and focuses the input.
func (v *View) Reset() {
	v.focusInput()
	v.input.Reset()
	v.list.SetResults(nil)
	v.lastQuery = ""
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused reports whether keys go to the input box.
func (v *View) InputFocused() bool { return v.mode == modeTyping }

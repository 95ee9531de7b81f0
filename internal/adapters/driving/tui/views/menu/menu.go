// Package menu renders the start screen.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
)

// Item is one entry. Selecting it switches to View, or exits when Quit is set.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// DefaultItems is the menu shown at startup.
func DefaultItems() []Item {
	return []Item{
		{Label: "Search", Hint: "rank segments against a query", View: messages.ViewSearch},
		{Label: "Documents", Hint: "browse, inspect and delete", View: messages.ViewDocuments},
		{Label: "Drain queue", Hint: "embed pending segments", View: messages.ViewDrain},
		{Label: "Help", Hint: "key bindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View is the menu screen.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	items  []Item
	cursor int

	// pending is the queue's pending count, or -1 when unknown.
	pending int

	width, height int
	ready         bool
}

// NewView creates the menu. Nil arguments fall back to the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	h := help.New()
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &View{
		styles:  s,
		keys:    km,
		help:    h,
		items:   DefaultItems(),
		pending: -1,
		width:   80,
		height:  24,
	}
}

// Init implements the view contract; the menu needs no startup command.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and activates items.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.QueueStatsLoaded:
		if msg.Err == nil {
			v.pending = msg.Stats.Pending
		}

	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.cursor = max(v.cursor-1, 0)
	case key.Matches(msg, v.keys.Down):
		v.cursor = min(v.cursor+1, len(v.items)-1)
	case key.Matches(msg, v.keys.Select):
		return v.activate(v.cursor)
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit
	default:
		// 1..9 jump straight to an item
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(v.items) {
				v.cursor = i
				return v.activate(i)
			}
		}
	}
	return nil
}

func (v *View) activate(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("vectorlite"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render("local semantic search"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%d. %s", i+1, item.Label)
		if item.View == messages.ViewDrain && v.pending > 0 {
			label += fmt.Sprintf(" (%s pending)", humanize.Comma(int64(v.pending)))
		}

		if i == v.cursor {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if item.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.help.ShortHelpView([]key.Binding{v.keys.Up, v.keys.Down, v.keys.Select, v.keys.Quit}))
	return b.String()
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.help.Width = width
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int {
	return v.cursor
}

// Pending returns the last known pending count, or -1.
func (v *View) Pending() int {
	return v.pending
}

// Package status renders the one-line bar at the bottom of a view.
package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
)

// State selects the bar's label and key hints.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateDraining  State = "draining"
	StatePaused    State = "paused"
	StateError     State = "error"
)

// Bar shows what the view is doing on the left and key hints on the right.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	state   State
	message string
	count   int
	elapsed time.Duration
	width   int
}

// NewBar creates a bar in the ready state.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	h := help.New()
	h.Styles.ShortKey = s.Muted
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted
	h.ShortSeparator = " | "

	return &Bar{styles: s, keymap: km, help: h, state: StateReady, width: 80}
}

// Init is a no-op; the bar is driven through its setters.
func (b *Bar) Init() tea.Cmd { return nil }

// Update is a no-op; the bar is driven through its setters.
func (b *Bar) Update(tea.Msg) (*Bar, tea.Cmd) { return b, nil }

// View renders the bar at its configured width.
func (b *Bar) View() string {
	right := b.help.ShortHelpView(b.hints())
	room := b.width - lipgloss.Width(right) - 3
	left := b.label()
	if room > 0 && lipgloss.Width(left) > room {
		left = ansi.Truncate(left, room, "…")
	}

	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	line := lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().Width(gap).Render(""), right)
	return b.styles.StatusBar.Width(b.width).Render(line)
}

func (b *Bar) label() string {
	switch b.state {
	case StateSearching:
		return b.styles.Muted.Render("Searching...")
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	case StateDraining:
		return b.styles.Warning.Render("Draining... " + b.message)
	case StatePaused:
		return b.styles.Muted.Render("Paused " + b.message)
	case StateReady, StateResults:
	}

	if b.count == 0 {
		return b.styles.Muted.Render("Ready")
	}
	text := humanize.Comma(int64(b.count)) + " results"
	if b.count == 1 {
		text = "1 result"
	}
	if b.elapsed > 0 {
		text += fmt.Sprintf(" in %s", b.elapsed.Round(time.Millisecond))
	}
	return b.styles.Normal.Render(text)
}

func (b *Bar) hints() []key.Binding {
	switch {
	case b.state == StateResults && b.count > 0:
		return b.keymap.ResultsHelp()
	case b.state == StateDraining, b.state == StatePaused:
		return b.keymap.DrainHelp()
	default:
		return b.keymap.ShortHelp()
	}
}

// SetState switches the label and hints.
func (b *Bar) SetState(state State) { b.state = state }

// State returns the current state.
func (b *Bar) State() State { return b.state }

// SetMessage sets the text shown after the state label.
func (b *Bar) SetMessage(message string) { b.message = message }

// Message returns the current message.
func (b *Bar) Message() string { return b.message }

// SetResults records a completed search of count results that took elapsed.
func (b *Bar) SetResults(count int, elapsed time.Duration) {
	b.count = count
	b.elapsed = elapsed
}

// SetResultCount records count results with no timing.
func (b *Bar) SetResultCount(count int) { b.SetResults(count, 0) }

// ResultCount returns the recorded result count.
func (b *Bar) ResultCount() int { return b.count }

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) {
	b.width = width
	b.help.Width = width
}

// Width returns the rendered width.
func (b *Bar) Width() int { return b.width }

// Clear returns the bar to the ready state.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.count = 0
	b.elapsed = 0
}

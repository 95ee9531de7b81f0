package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// target runs cmd and returns the view it asks for.
func target(t *testing.T, cmd tea.Cmd) messages.ViewType {
	t.Helper()
	require.NotNil(t, cmd)
	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok, "expected ViewChanged")
	return changed.View
}

func TestNewView_Defaults(t *testing.T) {
	v := NewView(nil, nil)

	assert.NotNil(t, v.styles)
	assert.NotNil(t, v.keys)
	assert.Equal(t, DefaultItems(), v.items)
	assert.Equal(t, 0, v.Selected())
	assert.Equal(t, -1, v.Pending())
	assert.Nil(t, v.Init())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_CursorMovement(t *testing.T) {
	v := NewView(nil, nil)
	last := len(v.items) - 1

	steps := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, 0},
		{tea.KeyMsg{Type: tea.KeyDown}, 1},
		{runes("j"), 2},
		{runes("j"), 3},
		{runes("j"), last},
		{runes("j"), last},
		{runes("k"), last - 1},
		{tea.KeyMsg{Type: tea.KeyUp}, last - 2},
	}
	for _, step := range steps {
		v.Update(step.key)
		assert.Equal(t, step.want, v.Selected(), "after %q", step.key.String())
	}
}

func TestView_EnterSwitchesView(t *testing.T) {
	for i, item := range DefaultItems() {
		if item.Quit {
			continue
		}
		t.Run(item.Label, func(t *testing.T) {
			v := NewView(nil, nil)
			v.cursor = i

			_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

			assert.Equal(t, item.View, target(t, cmd))
		})
	}
}

func TestView_NumberShortcut(t *testing.T) {
	v := NewView(nil, nil)

	_, cmd := v.Update(runes("3"))

	assert.Equal(t, messages.ViewDrain, target(t, cmd))
	assert.Equal(t, 2, v.Selected())

	_, cmd = v.Update(runes("9"))
	assert.Nil(t, cmd)
	assert.Equal(t, 2, v.Selected())
}

func TestView_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		prep func(v *View)
	}{
		{name: "q", msg: runes("q")},
		{name: "quit item", msg: tea.KeyMsg{Type: tea.KeyEnter}, prep: func(v *View) { v.cursor = len(v.items) - 1 }},
		{name: "quit shortcut", msg: runes("5")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewView(nil, nil)
			if tt.prep != nil {
				tt.prep(v)
			}

			_, cmd := v.Update(tt.msg)

			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestView_PendingBadge(t *testing.T) {
	v := NewView(nil, nil)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.NotContains(t, v.View(), "pending)")

	v.Update(messages.QueueStatsLoaded{Stats: domain.QueueStats{Pending: 1250}})
	assert.Equal(t, 1250, v.Pending())
	assert.Contains(t, v.View(), "3. Drain queue (1,250 pending)")

	v.Update(messages.QueueStatsLoaded{Err: assert.AnError})
	assert.Equal(t, 1250, v.Pending())
}

func TestView_Render(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(100, 30)

	out := v.View()

	assert.Contains(t, out, "vectorlite")
	assert.Contains(t, out, "local semantic search")
	assert.Contains(t, out, "1. Search")
	assert.Contains(t, out, "embed pending segments")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "quit")
}

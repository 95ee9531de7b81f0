// Package keymap holds the TUI key bindings and the help groupings built on them.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap lists every binding shared across views.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// List movement
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Select   key.Binding

	// Search
	Search    key.Binding
	NewSearch key.Binding
	Open      key.Binding

	// Documents
	Reload  key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Confirm key.Binding
	Filter  key.Binding

	// Queue
	Drain   key.Binding
	Requeue key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns vim-flavoured bindings with arrow key equivalents.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: bind("q", "quit", "q", "ctrl+c"),
		Help: bind("?", "help", "?"),
		Back: bind("esc", "back", "esc"),

		Up:       bind("↑/k", "up", "up", "k"),
		Down:     bind("↓/j", "down", "down", "j"),
		PageUp:   bind("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: bind("pgdn", "page down", "pgdown", "ctrl+d"),
		Top:      bind("g", "top", "home", "g"),
		Bottom:   bind("G", "bottom", "end", "G"),
		Select:   bind("enter", "select", "enter"),

		Search:    bind("enter", "search", "enter"),
		NewSearch: bind("n", "new search", "n", "/"),
		Open:      bind("enter", "open document", "enter"),

		Reload:  bind("r", "reload", "r"),
		Toggle:  bind("t", "text/segments", "t"),
		Delete:  bind("x", "delete", "x", "delete"),
		Confirm: bind("y", "confirm", "y"),
		Filter:  bind("f", "next group", "f"),

		Drain:   bind("d", "drain/pause", "d", " "),
		Requeue: bind("r", "requeue failed", "r"),
	}
}

// ShortHelp is shown when a view has nothing more specific.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ResultsHelp is shown while browsing search results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewSearch, k.Up, k.Open, k.Back}
}

// DocumentsHelp is shown under the document list.
func (k *KeyMap) DocumentsHelp() []key.Binding {
	return []key.Binding{k.Select, k.Delete, k.Filter, k.Reload, k.Back}
}

// ContentHelp is shown while reading a document.
func (k *KeyMap) ContentHelp() []key.Binding {
	return []key.Binding{k.Up, k.PageDown, k.Top, k.Toggle, k.Back}
}

// DrainHelp is shown on the drain screen.
func (k *KeyMap) DrainHelp() []key.Binding {
	return []key.Binding{k.Drain, k.Requeue, k.Back}
}

// FullHelp groups every binding by concern.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Select, k.Search, k.NewSearch, k.Back},
		{k.Reload, k.Toggle, k.Delete, k.Filter, k.Drain, k.Requeue},
		{k.Help, k.Quit},
	}
}

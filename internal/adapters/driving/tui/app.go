package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/views/drain"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView       *menu.View
	searchView     *search.View
	documentsView  *documents.View
	docContentView *doccontent.View
	drainView      *drain.View

	// selectedDocument is the document shown in the content view.
	selectedDocument *domain.Document

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s, km),
		searchView:     search.NewView(s, km, ports.Search, ports.SearchOptions),
		documentsView:  documents.NewView(s, km, ports.Document),
		docContentView: doccontent.NewView(s, km, ports.Document),
		drainView:      drain.NewView(s, km, ports.Queue, domain.Scope{}, ports.BatchSize),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context passed to every view's service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	a.drainView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("vectorlite - Semantic Search"),
		a.queueStats(),
	)
}

// queueStats refreshes the menu's pending badge. Nil without a queue port.
func (a *App) queueStats() tea.Cmd {
	if a.ports.Queue == nil {
		return nil
	}
	ctx, queue := a.ctx, a.ports.Queue
	return func() tea.Msg {
		stats, err := queue.Stats(ctx)
		return messages.QueueStatsLoaded{Stats: stats, Err: err}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.routeKey(msg)

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		back := a.currentView
		if back != messages.ViewSearch {
			back = messages.ViewDocuments
		}
		a.selectedDocument = &msg.Document
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(&msg.Document, back)

	case messages.DocumentContentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.QueueStatsLoaded, messages.DrainBatchCompleted,
		messages.DrainFinished, messages.RequeueCompleted:
		// drain keeps running while another view is shown
		if stats, ok := msg.(messages.QueueStatsLoaded); ok {
			a.menuView, _ = a.menuView.Update(stats)
		}
		a.drainView, cmd = a.drainView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewDocContent:
			a.docContentView, cmd = a.docContentView.Update(msg)
		case messages.ViewDrain:
			a.drainView, cmd = a.drainView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewDrain:
		a.drainView, cmd = a.drainView.Update(msg)
	case messages.ViewHelp:
	}

	return a, cmd
}

func (a *App) routeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewDrain:
		a.drainView, cmd = a.drainView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}
	return a, cmd
}

// switchTo activates view and runs its entry command.
// Returning to search from a document keeps the previous results.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	prev := a.currentView
	a.currentView = view

	switch view {
	case messages.ViewSearch:
		if prev == messages.ViewDocContent {
			return nil
		}
		a.searchView.Reset()
		return a.searchView.Init()
	case messages.ViewDocuments:
		return a.documentsView.Load()
	case messages.ViewDrain:
		a.drainView.Reset()
		return a.drainView.Init()
	case messages.ViewMenu:
		return a.queueStats()
	case messages.ViewHelp, messages.ViewDocContent:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewDrain:
		return a.drainView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Search:
  (type)      Enter search query
  group:name  Restrict to a group (repeatable)
  enter       Submit search / open result
  n           New search

Documents:
  enter       Actions (show content, delete)
  r           Reload
  t           Toggle full text and segments

Drain:
  d, space    Start, pause or resume
  r           Requeue failed entries

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SelectedDocument returns the document last opened in the content view.
func (a *App) SelectedDocument() *domain.Document {
	return a.selectedDocument
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.drainView.SetDimensions(width, height)
}

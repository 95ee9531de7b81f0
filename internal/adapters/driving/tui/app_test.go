package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

func testDocs() []domain.Document {
	return []domain.Document{
		{ID: 1, Title: "roadmap", FileType: "md", Content: "Ship the queue rewrite.", Groups: []string{"work"}},
		{ID: 2, Title: "recipes", FileType: "txt", Content: "Bread.", Groups: []string{"default"}},
	}
}

func newTestApp(t *testing.T) (*App, *MockDocumentService) {
	t.Helper()
	docs := &MockDocumentService{
		Docs: testDocs(),
		Segs: []domain.Segment{{ID: 10, DocumentID: 1, Index: 0, Content: "Ship the queue rewrite.", TokenCount: 6}},
	}
	search := &MockSearchService{
		SearchFunc: func(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
			return []domain.SearchResult{{Document: testDocs()[0], Segment: docs.Segs[0], Score: 0.91}}, nil
		},
	}
	app, err := NewApp(NewPorts(search, &MockQueueService{StatsValue: domain.QueueStats{Pending: 4}}, docs))
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app, docs
}

// feed runs cmd and hands its message to the app, once.
func feed(app *App, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	_, next := app.Update(cmd())
	return next
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Search: &MockSearchService{}})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.WithValue(context.Background(), struct{}{}, "v")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, _ := newTestApp(t)

	assert.NotNil(t, app.Init())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(&Ports{Search: &MockSearchService{}})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Search: &MockSearchService{}})
	require.NoError(t, err)

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "vectorlite")
}

func TestApp_Menu_OpensSearch(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	feed(app, cmd)

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_SearchToDocumentAndBack(t *testing.T) {
	app, _ := newTestApp(t)
	feed(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} })
	app.searchView.SetQuery("queue")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	feed(app, cmd)
	require.Len(t, app.searchView.Results(), 1)
	assert.Contains(t, app.View(), "roadmap.md")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	load := feed(app, cmd)
	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	require.NotNil(t, app.SelectedDocument())
	assert.Equal(t, int64(1), app.SelectedDocument().ID)

	feed(app, load)
	assert.Contains(t, app.View(), "1 segments")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	feed(app, cmd)
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Len(t, app.searchView.Results(), 1, "results survive the round trip")
}

func TestApp_Documents(t *testing.T) {
	app, docs := newTestApp(t)

	load := feed(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} })
	feed(app, load)

	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Equal(t, 1, docs.ListCall)
	assert.Contains(t, app.View(), "Documents (2)")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	feed(app, cmd)
	assert.Equal(t, messages.ViewDocContent, app.CurrentView())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	load = feed(app, cmd)
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	feed(app, load)
	assert.Equal(t, 2, docs.ListCall)
}

func TestApp_Drain(t *testing.T) {
	app, _ := newTestApp(t)

	stats := feed(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDrain} })
	feed(app, stats)

	assert.Equal(t, messages.ViewDrain, app.CurrentView())
	out := app.View()
	assert.Contains(t, out, "Drain queue")
	assert.Contains(t, out, "pending 4")
}

func TestApp_DrainMessagesRoutedFromOtherViews(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(messages.QueueStatsLoaded{Stats: domain.QueueStats{Failed: 3}})

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.Equal(t, 3, app.drainView.Stats().Failed)
}

func TestApp_MenuShowsPendingCount(t *testing.T) {
	app, _ := newTestApp(t)

	feed(app, app.queueStats())

	assert.Equal(t, 4, app.menuView.Pending())
	assert.Contains(t, app.View(), "Drain queue (4 pending)")
}

func TestApp_QueueStatsWithoutQueue(t *testing.T) {
	app, err := NewApp(&Ports{Search: &MockSearchService{}})
	require.NoError(t, err)

	assert.Nil(t, app.queueStats())
}

func TestApp_Help(t *testing.T) {
	app, _ := newTestApp(t)
	feed(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} })

	assert.Contains(t, app.View(), "group:name")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"quit message", messages.Quit{}},
		{"q on menu", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)

			_, cmd := app.Update(tt.msg)
			require.NotNil(t, cmd)

			assert.Equal(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t)
	feed(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} })

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.EqualError(t, app.searchView.Err(), "boom")
}

func TestApp_SearchError(t *testing.T) {
	app, _ := newTestApp(t)
	feed(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} })

	app.Update(messages.SearchCompleted{Err: domain.ErrEmbeddingUnavailable})

	assert.ErrorIs(t, app.Err(), domain.ErrEmbeddingUnavailable)
}

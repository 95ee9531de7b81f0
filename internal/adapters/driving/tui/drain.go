package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/views/drain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

// drainModel runs the drain view on its own and quits when the queue
// in scope is empty, draining fails, or the user leaves.
type drainModel struct {
	view *drain.View
}

func (m *drainModel) Init() tea.Cmd {
	return tea.Batch(m.view.Init(), m.view.Start())
}

func (m *drainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case messages.ViewChanged:
		return m, tea.Quit
	case messages.DrainFinished:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	if _, ok := msg.(messages.DrainBatchCompleted); ok && m.view.Err() != nil {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *drainModel) View() string {
	return m.view.View() + "\n"
}

// RunDrain drains scope batch by batch with a live progress bar. It
// returns what was drained before the queue emptied or the user quit.
func RunDrain(
	ctx context.Context, queue driving.QueueService, scope domain.Scope, size int,
) (*domain.DrainReport, error) {
	if queue == nil {
		return nil, ErrMissingQueueService
	}

	view := drain.NewView(styles.DefaultStyles(), nil, queue, scope, size).WithContext(ctx)
	p := tea.NewProgram(&drainModel{view: view}, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return view.Report(), err
	}
	return view.Report(), view.Err()
}

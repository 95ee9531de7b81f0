// Package drain provides the queue drain view for the TUI.
//
// The view drains pending entries one batch at a time, advancing the batch
// offset after each report, and renders overall progress with a bar.
package drain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

// ErrNoQueueService is returned when the view has no queue service.
var ErrNoQueueService = errors.New("queue service not available")

// maxFailures is how many recent failures the view lists.
const maxFailures = 5

// View is the queue drain view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	bar       progress.Model
	statusbar *status.Bar

	queue driving.QueueService
	ctx   context.Context
	scope domain.Scope
	size  int

	stats    domain.QueueStats
	last     *domain.DrainReport
	results  []domain.DrainResult
	offset   int
	running  bool
	paused   bool
	finished bool
	notice   string
	err      error

	width  int
	height int
}

// NewView creates a drain view over scope, draining size entries per batch.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	queue driving.QueueService,
	scope domain.Scope,
	size int,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if size <= 0 {
		size = domain.DefaultBatchSize
	}

	return &View{
		styles:    s,
		keymap:    km,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		statusbar: status.NewBar(s, km),
		queue:     queue,
		ctx:       context.Background(),
		scope:     scope,
		size:      size,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for queue calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the queue counts.
func (v *View) Init() tea.Cmd {
	return v.loadStats()
}

// Reset clears a previous run unless one is in flight.
func (v *View) Reset() {
	if v.running {
		return
	}
	v.last = nil
	v.results = nil
	v.offset = 0
	v.paused = false
	v.finished = false
	v.notice = ""
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// Start begins draining from the first batch.
func (v *View) Start() tea.Cmd {
	if v.running {
		return nil
	}
	v.Reset()
	v.running = true
	v.statusbar.SetState(status.StateDraining)
	return v.drainBatch(0)
}

func (v *View) loadStats() tea.Cmd {
	return func() tea.Msg {
		if v.queue == nil {
			return messages.QueueStatsLoaded{Err: ErrNoQueueService}
		}
		stats, err := v.queue.Stats(v.ctx)
		return messages.QueueStatsLoaded{Stats: stats, Err: err}
	}
}

func (v *View) drainBatch(offset int) tea.Cmd {
	ctx, queue, scope, size := v.ctx, v.queue, v.scope, v.size
	return func() tea.Msg {
		if queue == nil {
			return messages.DrainBatchCompleted{Err: ErrNoQueueService}
		}
		report, err := queue.DrainBatch(ctx, scope, size, offset)
		return messages.DrainBatchCompleted{Report: report, Err: err}
	}
}

func (v *View) requeue() tea.Cmd {
	ctx, queue, scope := v.ctx, v.queue, v.scope
	return func() tea.Msg {
		if queue == nil {
			return messages.RequeueCompleted{Err: ErrNoQueueService}
		}
		n, err := queue.Requeue(ctx, scope)
		return messages.RequeueCompleted{Count: n, Err: err}
	}
}

// Update handles messages for the drain view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.QueueStatsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.stats = msg.Stats
		return v, nil

	case messages.DrainBatchCompleted:
		return v.handleBatch(msg)

	case messages.DrainFinished:
		return v, v.loadStats()

	case messages.RequeueCompleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Requeued %d failed entries", msg.Count)
		return v, v.loadStats()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		// an in-flight batch still completes and is recorded
		v.paused = v.running
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case key.Matches(msg, v.keymap.Drain):
		switch {
		case v.running && !v.paused:
			v.paused = true
			v.statusbar.SetState(status.StatePaused)
			return v, nil
		case v.paused:
			v.paused = false
			v.statusbar.SetState(status.StateDraining)
			if v.running {
				// the pending batch will continue the run
				return v, nil
			}
			v.running = true
			return v, v.drainBatch(v.offset + 1)
		default:
			return v, v.Start()
		}

	case key.Matches(msg, v.keymap.Requeue):
		if v.running && !v.paused {
			return v, nil
		}
		return v, v.requeue()
	}

	return v, nil
}

func (v *View) handleBatch(msg messages.DrainBatchCompleted) (*View, tea.Cmd) {
	if msg.Report != nil {
		v.last = msg.Report
		v.offset = msg.Report.BatchIndex
		v.results = append(v.results, msg.Report.Results...)
		v.statusbar.SetMessage(fmt.Sprintf("%d/%d", msg.Report.Completed, msg.Report.Total))
	}

	if msg.Err != nil {
		v.running = false
		v.paused = false
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, v.loadStats()
	}

	if msg.Report != nil && msg.Report.HasMore {
		if v.paused {
			// stop here; resuming continues from the next offset
			v.running = false
			return v, v.loadStats()
		}
		return v, v.drainBatch(v.offset + 1)
	}

	v.running = false
	v.paused = false
	v.finished = true
	v.statusbar.SetState(status.StateReady)
	report := v.Report()
	return v, func() tea.Msg {
		return messages.DrainFinished{Report: report}
	}
}

// View renders the drain view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Drain queue"))
	b.WriteString("\n\n")

	b.WriteString(v.styles.Muted.Render(fmt.Sprintf(
		"pending %d  processing %d  completed %d  failed %d",
		v.stats.Pending, v.stats.Processing, v.stats.Completed, v.stats.Failed)))
	b.WriteString("\n\n")

	report := v.Report()
	if v.last != nil {
		b.WriteString(v.bar.ViewAs(report.ProgressPercent() / 100))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%d/%d segments  embedded %d  failed %d",
			report.Completed, report.Total, report.Succeeded(), report.Failed()))
		b.WriteString("\n\n")
	}

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	case v.finished:
		b.WriteString(v.styles.Success.Render("Queue drained."))
		b.WriteString("\n\n")
	case v.paused:
		b.WriteString(v.styles.Warning.Render("Paused. Press d to resume."))
		b.WriteString("\n\n")
	case !v.running && v.last == nil:
		b.WriteString(v.styles.Muted.Render("Press d to start draining."))
		b.WriteString("\n\n")
	}

	if v.notice != "" {
		b.WriteString(v.styles.Muted.Render(v.notice))
		b.WriteString("\n\n")
	}

	if failures := v.recentFailures(); len(failures) > 0 {
		b.WriteString(v.styles.Subtitle.Render("Recent failures"))
		b.WriteString("\n")
		for _, r := range failures {
			b.WriteString(v.styles.Error.Render(fmt.Sprintf("  doc %d seg %d: %s", r.DocumentID, r.SegmentID, r.Error)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) recentFailures() []domain.DrainResult {
	var out []domain.DrainResult
	for i := len(v.results) - 1; i >= 0 && len(out) < maxFailures; i-- {
		if v.results[i].Status == domain.QueueStatusFailed {
			out = append(out, v.results[i])
		}
	}
	return out
}

// Report returns the run so far: totals from the latest batch and every
// result seen since Start.
func (v *View) Report() *domain.DrainReport {
	if v.last == nil {
		return &domain.DrainReport{}
	}
	report := *v.last
	report.Results = append([]domain.DrainResult(nil), v.results...)
	return &report
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.bar.Width = min(max(width-4, 10), 60)
	v.statusbar.SetWidth(width)
}

// Running reports whether a batch is in flight or queued.
func (v *View) Running() bool {
	return v.running
}

// Paused reports whether draining is paused.
func (v *View) Paused() bool {
	return v.paused
}

// Finished reports whether the last run emptied the queue in scope.
func (v *View) Finished() bool {
	return v.finished
}

// Stats returns the last loaded queue counts.
func (v *View) Stats() domain.QueueStats {
	return v.stats
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

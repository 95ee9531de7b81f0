// Package doccontent shows one document, either as the numbered segments
// queued for embedding or as its full extracted text.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

var ErrNoDocumentService = errors.New("document service not available")

type Mode int

const (
	ModeSegments Mode = iota
	ModeText
)

// reserved rows: title, subtitle, rule, position line, help and padding.
const reserved = 7

type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model
	docs   driving.DocumentService
	ctx    context.Context

	document *domain.Document
	segments []domain.Segment
	mode     Mode
	back     messages.ViewType

	// lines is the wrapped rendering of the current mode.
	lines  []string
	offset int

	loading bool
	err     error

	width, height int
}

func NewView(s *styles.Styles, km *keymap.KeyMap, docs driving.DocumentService) *View {
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
		styles: s,
		keys:   km,
		help:   h,
		docs:   docs,
		ctx:    context.Background(),
		back:   messages.ViewDocuments,
		width:  80,
		height: 24,
	}
}

func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd { return nil }

// SetDocument switches to doc in segment mode and fetches its content and
// segments. Back returns to back.
func (v *View) SetDocument(doc *domain.Document, back messages.ViewType) tea.Cmd {
	v.document = doc
	v.back = back
	v.segments, v.lines = nil, nil
	v.mode = ModeSegments
	v.offset = 0
	v.err = nil
	v.loading = true

	svc, ctx := v.docs, v.ctx
	return func() tea.Msg {
		if doc == nil || svc == nil {
			return messages.DocumentContentLoaded{Err: ErrNoDocumentService}
		}
		full, err := svc.Get(ctx, doc.ID)
		if err != nil {
			return messages.DocumentContentLoaded{DocumentID: doc.ID, Err: err}
		}
		segments, err := svc.Segments(ctx, doc.ID)
		return messages.DocumentContentLoaded{DocumentID: doc.ID, Document: full, Segments: segments, Err: err}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	case messages.DocumentContentLoaded:
		if v.document != nil && msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		if msg.Document != nil {
			v.document = msg.Document
		}
		v.segments = msg.Segments
		v.err = nil
		v.wrap()
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Back):
		back := v.back
		return func() tea.Msg { return messages.ViewChanged{View: back} }
	case key.Matches(msg, v.keys.Up):
		v.scrollBy(-1)
	case key.Matches(msg, v.keys.Down):
		v.scrollBy(1)
	case key.Matches(msg, v.keys.PageUp):
		v.scrollBy(-v.visible())
	case key.Matches(msg, v.keys.PageDown):
		v.scrollBy(v.visible())
	case key.Matches(msg, v.keys.Top):
		v.offset = 0
	case key.Matches(msg, v.keys.Bottom):
		v.offset = v.maxOffset()
	case key.Matches(msg, v.keys.Toggle):
		if v.mode == ModeSegments {
			v.mode = ModeText
		} else {
			v.mode = ModeSegments
		}
		v.offset = 0
		v.wrap()
	}
	return nil
}

func (v *View) scrollBy(delta int) {
	v.offset = min(max(v.offset+delta, 0), v.maxOffset())
}

// wrap rebuilds lines for the current mode, hard-wrapped to the width.
func (v *View) wrap() {
	v.lines = nil
	if v.document == nil {
		return
	}

	var raw []string
	switch v.mode {
	case ModeText:
		if v.document.Content != "" {
			raw = strings.Split(v.document.Content, "\n")
		}
	case ModeSegments:
		for _, seg := range v.segments {
			raw = append(raw, fmt.Sprintf("── #%d (%d tokens) ──", seg.Index, seg.TokenCount))
			raw = append(raw, strings.Split(seg.Content, "\n")...)
			raw = append(raw, "")
		}
	}

	width := max(v.width-4, 20)
	for _, line := range raw {
		if line == "" {
			v.lines = append(v.lines, "")
			continue
		}
		v.lines = append(v.lines, strings.Split(ansi.Hardwrap(line, width, true), "\n")...)
	}
}

func (v *View) visible() int { return max(v.height-reserved, 1) }

func (v *View) maxOffset() int { return max(len(v.lines)-v.visible(), 0) }

func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.title()))
	b.WriteString("\n")
	if v.document != nil {
		b.WriteString(v.subtitle())
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Muted.Render(strings.Repeat("─", max(min(v.width-4, 60), 0))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		end := min(v.offset+v.visible(), len(v.lines))
		for _, line := range v.lines[v.offset:end] {
			b.WriteString(v.styles.Normal.Render(line))
			b.WriteString("\n")
		}
		if len(v.lines) > v.visible() {
			pct := 100
			if m := v.maxOffset(); m > 0 {
				pct = v.offset * 100 / m
			}
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("\n  [%d%%] Line %d-%d of %d", pct, v.offset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.help.ShortHelpView(v.keys.ContentHelp()))
	return b.String()
}

func (v *View) title() string {
	if v.document == nil {
		return "Document Content"
	}
	name := v.document.Title
	if name == "" {
		name = fmt.Sprintf("#%d", v.document.ID)
	}
	if v.document.FileType != "" {
		name += "." + v.document.FileType
	}
	return name
}

// subtitle is the mode summary, the size and the group tags.
func (v *View) subtitle() string {
	var parts []string
	if v.mode == ModeText {
		parts = append(parts, "full text")
	} else {
		tokens := 0
		for _, s := range v.segments {
			tokens += s.TokenCount
		}
		parts = append(parts, fmt.Sprintf("%d segments, ~%s tokens", len(v.segments), humanize.Comma(int64(tokens))))
	}
	if v.document.Size > 0 {
		parts = append(parts, humanize.Bytes(uint64(v.document.Size)))
	}
	out := v.styles.Muted.Render(strings.Join(parts, "  "))
	for _, g := range v.document.Groups {
		out += "  " + v.styles.Group(g, "")
	}
	return out
}

func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.help.Width = width
	v.wrap()
	v.offset = min(v.offset, v.maxOffset())
}

func (v *View) Document() *domain.Document { return v.document }

func (v *View) Segments() []domain.Segment { return v.segments }

func (v *View) Mode() Mode { return v.mode }

// Lines returns the wrapped rendering of the current mode.
func (v *View) Lines() []string { return v.lines }

func (v *View) Err() error { return v.err }

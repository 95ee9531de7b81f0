// Package documents lists ingested documents. Rows open their content,
// can be deleted after a confirmation, and can be narrowed to one group.
package documents

import (
	"context"
	"errors"
	"fmt"
	"slices"
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

// reserved rows: title, filter line, range, help and padding.
const reserved = 8

type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model
	docs   driving.DocumentService
	ctx    context.Context

	documents []domain.Document
	cursor    int
	top       int

	// groups seen in the last unfiltered load; filter indexes it, -1 is all.
	groups []string
	filter int

	// confirming holds the document awaiting a delete confirmation.
	confirming *domain.Document

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
		filter: -1,
		width:  80,
		height: 24,
	}
}

// WithContext sets the context passed to the document service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd { return nil }

// Load clears the filter and lists every document.
func (v *View) Load() tea.Cmd {
	v.cursor, v.top = 0, 0
	v.filter = -1
	v.confirming = nil
	v.err = nil
	return v.fetch()
}

func (v *View) fetch() tea.Cmd {
	v.loading = true
	svc, ctx := v.docs, v.ctx
	var groups []string
	if g := v.Filter(); g != "" {
		groups = []string{g}
	}
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx, groups)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		if v.confirming != nil {
			return v, v.answer(msg)
		}
		return v, v.handleKey(msg)
	case messages.DocumentsLoaded:
		v.loaded(msg)
	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.fetch()
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) loaded(msg messages.DocumentsLoaded) {
	v.loading = false
	if msg.Err != nil {
		v.err = msg.Err
		return
	}
	v.err = nil
	v.documents = msg.Documents
	if v.filter < 0 {
		v.groups = collectGroups(msg.Documents)
	}
	v.cursor = min(v.cursor, max(len(v.documents)-1, 0))
	v.scroll()
}

func collectGroups(docs []domain.Document) []string {
	var out []string
	for _, d := range docs {
		for _, g := range d.Groups {
			if !slices.Contains(out, g) {
				out = append(out, g)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case key.Matches(msg, v.keys.Up):
		v.move(-1)
	case key.Matches(msg, v.keys.Down):
		v.move(1)
	case key.Matches(msg, v.keys.PageUp):
		v.move(-v.visible())
	case key.Matches(msg, v.keys.PageDown):
		v.move(v.visible())
	case key.Matches(msg, v.keys.Top):
		v.move(-len(v.documents))
	case key.Matches(msg, v.keys.Bottom):
		v.move(len(v.documents))
	case key.Matches(msg, v.keys.Select):
		if doc := v.SelectedDocument(); doc != nil {
			d := *doc
			return func() tea.Msg { return messages.DocumentSelected{Document: d} }
		}
	case key.Matches(msg, v.keys.Delete):
		v.confirming = v.SelectedDocument()
	case key.Matches(msg, v.keys.Filter):
		if len(v.groups) == 0 {
			return nil
		}
		// cycle all -> each group -> all
		v.filter++
		if v.filter >= len(v.groups) {
			v.filter = -1
		}
		v.cursor, v.top = 0, 0
		return v.fetch()
	case key.Matches(msg, v.keys.Reload):
		return v.fetch()
	}
	return nil
}

// answer resolves a pending delete. Only the confirm key deletes.
func (v *View) answer(msg tea.KeyMsg) tea.Cmd {
	doc := v.confirming
	v.confirming = nil
	if !key.Matches(msg, v.keys.Confirm) {
		return nil
	}
	svc, ctx, id := v.docs, v.ctx, doc.ID
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{DocumentID: id, Err: svc.Delete(ctx, id)}
	}
}

func (v *View) move(delta int) {
	if len(v.documents) == 0 {
		return
	}
	v.cursor = min(max(v.cursor+delta, 0), len(v.documents)-1)
	v.scroll()
}

func (v *View) scroll() {
	n := v.visible()
	if v.cursor < v.top {
		v.top = v.cursor
	}
	if v.cursor >= v.top+n {
		v.top = v.cursor - n + 1
	}
}

func (v *View) visible() int { return max(v.height-reserved, 1) }

func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n")
	if g := v.Filter(); g != "" {
		b.WriteString(v.styles.Muted.Render("in ") + v.styles.Group(g, ""))
	}
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents ingested. Run 'vectorlite ingest <file>'."))
	default:
		v.renderRows(&b)
	}

	b.WriteString("\n\n")
	if v.confirming != nil {
		prompt := fmt.Sprintf("Delete %s and its embeddings? [y/N]", displayName(v.confirming))
		b.WriteString(v.styles.Warning.Render(prompt))
	} else {
		b.WriteString(v.help.ShortHelpView(v.keys.DocumentsHelp()))
	}
	return b.String()
}

func (v *View) renderRows(b *strings.Builder) {
	end := min(v.top+v.visible(), len(v.documents))
	nameWidth := max(v.width/2-4, 10)
	for i := v.top; i < end; i++ {
		doc := &v.documents[i]
		name := fmt.Sprintf("%-*s", nameWidth, ansi.Truncate(displayName(doc), nameWidth, "..."))
		meta := fmt.Sprintf("%8s", humanize.Bytes(uint64(max(doc.Size, 0))))
		if !doc.UpdatedAt.IsZero() {
			meta += "  " + humanize.Time(doc.UpdatedAt)
		}
		tags := make([]string, len(doc.Groups))
		for j, g := range doc.Groups {
			tags[j] = v.styles.Group(g, "")
		}

		if i == v.cursor {
			b.WriteString("> " + v.styles.Selected.Render(name))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(name))
		}
		b.WriteString("  " + v.styles.Muted.Render(meta))
		if len(tags) > 0 {
			b.WriteString("  " + strings.Join(tags, " "))
		}
		b.WriteString("\n")
	}
	if end-v.top < len(v.documents) {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("\n  [%d-%d of %d]", v.top+1, end, len(v.documents))))
	}
}

// displayName is "title.ext", or "#id.ext" for untitled documents.
func displayName(doc *domain.Document) string {
	name := doc.Title
	if name == "" {
		name = fmt.Sprintf("#%d", doc.ID)
	}
	if doc.FileType != "" {
		name += "." + doc.FileType
	}
	return name
}

func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.help.Width = width
	v.scroll()
}

func (v *View) Documents() []domain.Document { return v.documents }

func (v *View) SelectedIndex() int { return v.cursor }

// SelectedDocument returns the row under the cursor, or nil.
func (v *View) SelectedDocument() *domain.Document {
	if v.cursor < len(v.documents) {
		return &v.documents[v.cursor]
	}
	return nil
}

// Filter returns the group the list is narrowed to, or "".
func (v *View) Filter() string {
	if v.filter < 0 || v.filter >= len(v.groups) {
		return ""
	}
	return v.groups[v.filter]
}

// Confirming reports whether a delete is waiting for an answer.
func (v *View) Confirming() bool { return v.confirming != nil }

func (v *View) Err() error { return v.err }

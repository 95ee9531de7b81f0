package postprocessors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// mockProcessor is a test processor that returns predefined segments.
type mockProcessor struct {
	name     string
	segments []domain.Segment
	err      error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.Document, segs []domain.Segment) ([]domain.Segment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.segments != nil {
		return m.segments, nil
	}
	return segs, nil
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}

	p.Add(&mockProcessor{name: "test"})
	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	if err == nil {
		t.Error("expected error for nil document")
	}
}

func TestPipeline_Process_PassesSegmentsAlong(t *testing.T) {
	created := []domain.Segment{{Content: "one"}, {Content: "two"}}
	p := NewPipeline(
		&mockProcessor{name: "create", segments: created},
		&mockProcessor{name: "passthrough"},
	)

	out, err := p.Process(context.Background(), &domain.Document{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[1].Content != "two" {
		t.Errorf("unexpected segments: %+v", out)
	}
}

func TestPipeline_Process_Error(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&mockProcessor{name: "broken", err: boom})

	_, err := p.Process(context.Background(), &domain.Document{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "processor broken") {
		t.Errorf("expected processor name in error, got %q", err.Error())
	}
}

func TestPipeline_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(&mockProcessor{name: "create"}).Process(ctx, &domain.Document{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultPipeline(t *testing.T) {
	p, err := DefaultPipeline(domain.ChunkingSettings{Size: 40, Overlap: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(p.Names(), ","); got != "chunker,tokencount" {
		t.Errorf("unexpected processors: %s", got)
	}

	doc := &domain.Document{ID: 3, Content: strings.Repeat("Short sentence here. ", 10)}
	segs, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) < 2 {
		t.Fatalf("expected several segments, got %d", len(segs))
	}
	for i, s := range segs {
		if s.Index != i {
			t.Errorf("segment %d has index %d", i, s.Index)
		}
		if s.TokenCount == 0 {
			t.Errorf("segment %d has no token count", i)
		}
		if len(s.Content) > 40 {
			t.Errorf("segment %d exceeds size: %d", i, len(s.Content))
		}
	}
}

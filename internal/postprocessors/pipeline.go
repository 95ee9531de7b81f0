// Package postprocessors turns document text into stored segments.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var errNilDocument = errors.New("document is nil")

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline feeds each processor the segments produced by the one before it.
// The first processor starts from nil.
type Pipeline struct {
	processors []driven.PostProcessor
}

func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process stops at the first failing processor or when ctx is done.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Segment, error) {
	if doc == nil {
		return nil, errNilDocument
	}

	var (
		segments []domain.Segment
		err      error
	)
	for _, proc := range p.processors {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if segments, err = proc.Process(ctx, doc, segments); err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
	}
	return segments, nil
}

func (p *Pipeline) Add(proc driven.PostProcessor) { p.processors = append(p.processors, proc) }

func (p *Pipeline) Len() int { return len(p.processors) }

// Names lists processors in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// Package tokencount annotates segments with an estimated token count.
package tokencount

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/textutil"
)

// Processor fills Segment.TokenCount.
type Processor struct{}

// New creates a token count processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "tokencount"
}

// Process sets the token estimate on every segment and returns them.
func (p *Processor) Process(_ context.Context, _ *domain.Document, segments []domain.Segment) ([]domain.Segment, error) {
	for i := range segments {
		segments[i].TokenCount = textutil.EstimateTokens(segments[i].Content)
	}
	return segments, nil
}

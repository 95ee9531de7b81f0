package driven

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// PostProcessor is one stage of segment production. A creating stage such
// as the chunker ignores segments and returns new ones; an annotating stage
// such as token estimation returns segments with fields filled in.
type PostProcessor interface {
	// Name is the key under [postprocessors] in config.
	Name() string
	Process(ctx context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error)
}

// PostProcessorPipeline produces the final segments for a document.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Segment, error)
}

// Package chunker splits document text into bounded, overlapping segments.
package chunker

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// Defaults, in characters.
const (
	DefaultChunkSize    = domain.DefaultChunkSize
	DefaultChunkOverlap = domain.DefaultChunkOverlap
)

// Processor replaces a document's segments with fixed-size windows of its
// content, numbered from zero.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option overrides a default. Out-of-range values are ignored.
type Option func(*Processor)

func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New applies opts over the defaults. An overlap that would stop the window
// advancing is cut to a quarter of the size.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

func (p *Processor) Name() string { return "chunker" }

func (p *Processor) ChunkSize() int { return p.chunkSize }

func (p *Processor) Overlap() int { return p.overlap }

// Process ignores incoming segments. Empty content yields none.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Segment) ([]domain.Segment, error) {
	parts := Split(doc.Content, p.chunkSize, p.overlap)
	if len(parts) == 0 {
		return nil, nil
	}

	segments := make([]domain.Segment, 0, len(parts))
	for i, content := range parts {
		segments = append(segments, domain.Segment{
			DocumentID: doc.ID,
			Index:      i,
			Content:    content,
		})
	}
	return segments, nil
}

package driven

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// EmbeddingStore persists vectors, one per segment.
type EmbeddingStore interface {
	// SaveEmbedding stores the vector for a segment, replacing any earlier one.
	// Returns domain.ErrSegmentVanished when the segment no longer exists.
	SaveEmbedding(ctx context.Context, e *domain.Embedding) error

	// GetEmbedding retrieves the vector for a segment.
	GetEmbedding(ctx context.Context, segmentID int64) (*domain.Embedding, error)

	// Candidates loads every stored vector joined to its segment and document,
	// restricted to documents in at least one of groups when groups is non-empty.
	// Candidates are ordered by segment ID and their document Content is not loaded.
	Candidates(ctx context.Context, groups []string) ([]domain.Candidate, error)
}

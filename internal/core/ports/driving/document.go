package driving

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns documents in any of groups, or all when groups is empty.
	List(ctx context.Context, groups []string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// Segments returns a document's segments in order.
	Segments(ctx context.Context, id int64) ([]domain.Segment, error)

	// Delete removes a document and everything derived from it.
	Delete(ctx context.Context, id int64) error

	// Stats summarises the store.
	Stats(ctx context.Context) (domain.Stats, error)
}

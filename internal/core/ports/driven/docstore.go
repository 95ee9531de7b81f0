package driven

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// DocumentStore persists documents and their segments.
type DocumentStore interface {
	// SaveDocument inserts a document when its ID is zero (assigning the ID)
	// or updates title, content, type and size otherwise. When doc.Groups is
	// non-empty the memberships are replaced. The document's existing
	// segments, with their embeddings and queue entries, are replaced by
	// segments, and each new segment gets one pending queue entry. All of
	// it commits together or not at all. Every group must exist, otherwise
	// domain.ErrNotFound. A second document with the same title and file
	// type returns domain.ErrAlreadyExists. Returns the saved segments with
	// IDs assigned.
	SaveDocument(ctx context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error)

	// GetDocument retrieves a document by ID, including its group names.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// FindDocument retrieves the document with the given title and file type.
	// Returns domain.ErrNotFound when there is none.
	FindDocument(ctx context.Context, title, fileType string) (*domain.Document, error)

	// ListDocuments returns documents in any of the groups, or all when groups
	// is empty, ordered by ID. Content is not loaded.
	ListDocuments(ctx context.Context, groups []string) ([]domain.Document, error)

	// DeleteDocument removes a document with its queue entries, embeddings,
	// segments and memberships in a single transaction.
	DeleteDocument(ctx context.Context, id int64) error

	// GetSegments returns a document's segments ordered by index.
	GetSegments(ctx context.Context, documentID int64) ([]domain.Segment, error)

	// GetSegment retrieves one segment. Returns domain.ErrNotFound when gone.
	GetSegment(ctx context.Context, id int64) (*domain.Segment, error)
}

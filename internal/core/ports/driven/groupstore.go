package driven

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// GroupStore persists groups and document memberships.
// The default group is created by the store and always exists.
type GroupStore interface {
	// SaveGroup inserts a group when its ID is zero or updates it otherwise.
	// Returns domain.ErrAlreadyExists on a duplicate name.
	SaveGroup(ctx context.Context, g *domain.Group) error

	// GetGroup retrieves a group by name.
	GetGroup(ctx context.Context, name string) (*domain.Group, error)

	// ListGroups returns all groups ordered by name with document counts.
	ListGroups(ctx context.Context) ([]domain.Group, error)

	// DeleteGroup removes a group and its memberships. Documents left
	// without any group are attached to the default group.
	DeleteGroup(ctx context.Context, name string) error

	// SetDocumentGroups replaces a document's memberships.
	// Every name must exist; otherwise domain.ErrNotFound.
	SetDocumentGroups(ctx context.Context, documentID int64, names []string) error
}

// StatsStore reports aggregate counts.
type StatsStore interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

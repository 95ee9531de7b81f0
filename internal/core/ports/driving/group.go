package driving

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// GroupInput is the editable part of a group.
type GroupInput struct {
	Name        string `validate:"required,max=64"`
	Description string `validate:"max=255"`
	Color       string `validate:"omitempty,hexcolor"`
}

// GroupService manages groups and document memberships.
type GroupService interface {
	Create(ctx context.Context, in GroupInput) (*domain.Group, error)
	Get(ctx context.Context, name string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)

	// Update edits description and colour. Renaming the default group is refused.
	Update(ctx context.Context, name string, in GroupInput) (*domain.Group, error)

	// Delete removes a group. The default group cannot be deleted.
	Delete(ctx context.Context, name string) error

	// SetDocumentGroups replaces a document's memberships, falling back to default.
	SetDocumentGroups(ctx context.Context, documentID int64, names []string) error
}

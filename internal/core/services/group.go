package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/validation"
)

// Ensure GroupService implements the interface.
var _ driving.GroupService = (*GroupService)(nil)

// GroupService manages groups. The default group is never renamed or deleted.
type GroupService struct {
	groupStore driven.GroupStore
}

// NewGroupService creates a new group service.
func NewGroupService(groupStore driven.GroupStore) *GroupService {
	return &GroupService{groupStore: groupStore}
}

// Create adds a group. The colour defaults to domain.DefaultGroupColor.
func (s *GroupService) Create(ctx context.Context, in driving.GroupInput) (*domain.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Name == domain.DefaultGroupName {
		return nil, fmt.Errorf("group %q: %w", in.Name, domain.ErrAlreadyExists)
	}

	g := &domain.Group{
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
	}
	if g.Color == "" {
		g.Color = domain.DefaultGroupColor
	}
	if err := s.groupStore.SaveGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("create group %q: %w", in.Name, err)
	}
	return g, nil
}

// Get retrieves a group by name.
func (s *GroupService) Get(ctx context.Context, name string) (*domain.Group, error) {
	return s.groupStore.GetGroup(ctx, strings.TrimSpace(name))
}

// List returns all groups with document counts.
func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.groupStore.ListGroups(ctx)
}

// Update edits a group. An empty colour keeps the current one.
func (s *GroupService) Update(ctx context.Context, name string, in driving.GroupInput) (*domain.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = name
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	g, err := s.groupStore.GetGroup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", name, err)
	}
	if in.Name != g.Name {
		if g.IsDefault() {
			return nil, domain.ErrDefaultGroupProtected
		}
		if in.Name == domain.DefaultGroupName {
			return nil, fmt.Errorf("group %q: %w", in.Name, domain.ErrAlreadyExists)
		}
	}

	g.Name = in.Name
	g.Description = in.Description
	if in.Color != "" {
		g.Color = in.Color
	}
	if err := s.groupStore.SaveGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("update group %q: %w", name, err)
	}
	return g, nil
}

// Delete removes a group. Its documents fall back to the default group
// when they belong nowhere else.
func (s *GroupService) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == domain.DefaultGroupName {
		return domain.ErrDefaultGroupProtected
	}
	return s.groupStore.DeleteGroup(ctx, name)
}

// SetDocumentGroups replaces a document's memberships.
// An empty list puts the document in the default group.
func (s *GroupService) SetDocumentGroups(ctx context.Context, documentID int64, names []string) error {
	return s.groupStore.SetDocumentGroups(ctx, documentID, domain.NormaliseGroups(names))
}

package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested documents.
type DocumentService struct {
	docStore   driven.DocumentStore
	statsStore driven.StatsStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore, statsStore driven.StatsStore) *DocumentService {
	return &DocumentService{
		docStore:   docStore,
		statsStore: statsStore,
	}
}

// List returns documents in any of groups, or all when groups is empty.
func (s *DocumentService) List(ctx context.Context, groups []string) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, groups)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id int64) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, id)
}

// Segments returns a document's segments in order.
func (s *DocumentService) Segments(ctx context.Context, id int64) ([]domain.Segment, error) {
	if _, err := s.docStore.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	return s.docStore.GetSegments(ctx, id)
}

// Delete removes a document with its segments, embeddings and queue entries.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if err := s.docStore.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	logger.Debug("Deleted document %d", id)
	return nil
}

// Stats summarises the store.
func (s *DocumentService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.statsStore.Stats(ctx)
}

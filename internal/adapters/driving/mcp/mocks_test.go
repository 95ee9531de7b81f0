package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error

	gotQuery string
	gotOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.gotQuery = query
	m.gotOpts = opts
	return m.results, m.err
}

// mockQueueService is a mock implementation of driving.QueueService.
type mockQueueService struct {
	report   *domain.DrainReport
	requeued int
	err      error

	gotScope  domain.Scope
	gotSize   int
	gotOffset int
}

func (m *mockQueueService) DrainBatch(_ context.Context, scope domain.Scope, size, offset int) (*domain.DrainReport, error) {
	m.gotScope, m.gotSize, m.gotOffset = scope, size, offset
	return m.report, m.err
}

func (m *mockQueueService) DrainAll(_ context.Context, _ int) (*domain.DrainReport, error) {
	return m.report, m.err
}

func (m *mockQueueService) Plan(_ context.Context, _ domain.Scope, _, _ int) ([]domain.QueueEntry, error) {
	return nil, m.err
}

func (m *mockQueueService) Requeue(_ context.Context, scope domain.Scope) (int, error) {
	m.gotScope = scope
	return m.requeued, m.err
}

func (m *mockQueueService) Recover(_ context.Context, _ time.Duration) (int, error) {
	return 0, m.err
}

func (m *mockQueueService) List(_ context.Context, _ domain.QueueStatus, _ int) ([]domain.QueueEntry, error) {
	return nil, m.err
}

func (m *mockQueueService) Stats(_ context.Context) (domain.QueueStats, error) {
	return domain.QueueStats{}, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	stats     domain.Stats
	err       error

	gotGroups []string
}

func (m *mockDocumentService) List(_ context.Context, groups []string) ([]domain.Document, error) {
	m.gotGroups = groups
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ int64) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Segments(_ context.Context, _ int64) ([]domain.Segment, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ int64) error {
	return m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

// mockGroupService is a mock implementation of driving.GroupService.
type mockGroupService struct {
	groups []domain.Group
	err    error
}

func (m *mockGroupService) Create(_ context.Context, _ driving.GroupInput) (*domain.Group, error) {
	return nil, m.err
}

func (m *mockGroupService) Get(_ context.Context, _ string) (*domain.Group, error) {
	return nil, m.err
}

func (m *mockGroupService) List(_ context.Context) ([]domain.Group, error) {
	return m.groups, m.err
}

func (m *mockGroupService) Update(_ context.Context, _ string, _ driving.GroupInput) (*domain.Group, error) {
	return nil, m.err
}

func (m *mockGroupService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockGroupService) SetDocumentGroups(_ context.Context, _ int64, _ []string) error {
	return m.err
}

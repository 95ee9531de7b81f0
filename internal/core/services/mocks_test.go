package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/postprocessors"
)

// --- Mock implementations ---

// mockProvider implements driven.EmbeddingProvider for testing.
type mockProvider struct {
	mu sync.Mutex

	// vectors maps exact input text to its vector; vector is the fallback.
	vectors map[string][]float32
	vector  []float32

	// err fails every call; failOn fails calls whose text contains the key.
	err    error
	failOn map[string]error

	// onEmbed runs before the result is returned.
	onEmbed func()

	calls []string
}

func (m *mockProvider) Embed(ctx context.Context, text string) (*domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	hook := m.onEmbed
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	for key, err := range m.failOn {
		if strings.Contains(text, key) {
			return nil, err
		}
	}
	vec := m.vector
	if v, ok := m.vectors[text]; ok {
		vec = v
	}
	if vec == nil {
		vec = []float32{1, 0}
	}
	return &domain.EmbeddingResult{Vector: vec, Model: "mock-embed"}, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// failingDocStore fails every SaveDocument and delegates the rest.
type failingDocStore struct {
	driven.DocumentStore
	err error
}

func (f *failingDocStore) SaveDocument(context.Context, *domain.Document, []domain.Segment) ([]domain.Segment, error) {
	return nil, f.err
}

// failingPipeline implements driven.PostProcessorPipeline and always fails.
type failingPipeline struct{ err error }

func (f failingPipeline) Process(context.Context, *domain.Document) ([]domain.Segment, error) {
	return nil, f.err
}

// mockValidator implements driven.EmbeddingConfigValidator for testing.
type mockValidator struct {
	result *domain.EmbeddingResult
	err    error
	got    domain.ProviderConfig
}

func (m *mockValidator) Validate(_ context.Context, cfg domain.ProviderConfig) (*domain.EmbeddingResult, error) {
	m.got = cfg
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// --- Fixtures ---

// testChunking keeps segments small so tests can count them:
// every paragraph of 30 characters becomes its own segment.
var testChunking = domain.ChunkingSettings{Size: 40, Overlap: 0}

func newTestIngest(t *testing.T, store *memory.Store) *IngestService {
	t.Helper()
	pipeline, err := postprocessors.DefaultPipeline(testChunking)
	require.NoError(t, err)
	return NewIngestService(store.DocumentStore(), store.GroupStore(), pipeline, nil)
}

// paragraphs returns n distinct paragraphs of 30 characters each.
func paragraphs(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		p := prefix + string(rune('a'+i)) + " "
		parts[i] = (p + strings.Repeat("x", 30))[:29] + "."
	}
	return strings.Join(parts, "\n\n")
}

func ingestText(t *testing.T, svc *IngestService, title, content string, groups ...string) *driving.IngestResult {
	t.Helper()
	res, err := svc.Ingest(context.Background(), driving.IngestRequest{
		Title:    title,
		FileType: "txt",
		Content:  content,
		Size:     int64(len(content)),
		Groups:   groups,
	})
	require.NoError(t, err)
	return res
}

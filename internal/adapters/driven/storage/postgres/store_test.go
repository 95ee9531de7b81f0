package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// setupTestStore connects to VECTORLITE_TEST_POSTGRES_DSN and truncates every table.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("VECTORLITE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VECTORLITE_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.pool.Exec(ctx, `
		TRUNCATE embedding_queue, embeddings, segments, document_groups, documents RESTART IDENTITY CASCADE;
		DELETE FROM content_groups WHERE name <> 'default';
	`)
	require.NoError(t, err)
	return store
}

func TestStore_DocumentsAndSegments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	doc := &domain.Document{Key: "doc_pg", Title: "pg", FileType: "txt", Content: "hello", Groups: []string{"default"}}
	segs, err := docs.SaveDocument(ctx, doc, []domain.Segment{{Index: 0, Content: "a"}, {Index: 1, Content: "b"}})
	require.NoError(t, err)
	require.Len(t, segs, 2)
	_, err = docs.SaveDocument(ctx, &domain.Document{Key: "doc_pg2", Title: "pg", FileType: "txt"}, nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, got.Groups)

	list, err := docs.ListDocuments(ctx, []string{"default"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, docs.DeleteDocument(ctx, doc.ID))
	_, err = docs.GetSegment(ctx, segs[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_QueueAndEmbeddings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc := &domain.Document{Key: "doc_q", Title: "q", FileType: "md", Groups: []string{"default"}}
	segs, err := store.DocumentStore().SaveDocument(ctx, doc, []domain.Segment{{Index: 0, Content: "x"}, {Index: 1, Content: "y"}})
	require.NoError(t, err)

	q := store.QueueStore()

	pending, err := q.Pending(ctx, domain.Scope{Groups: []string{"default"}}, 1, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "y", pending[0].Content)

	ok, err := q.Transition(ctx, pending[0].ID, domain.QueueStatusPending, domain.QueueStatusProcessing, "")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = q.Transition(ctx, pending[0].ID, domain.QueueStatusPending, domain.QueueStatusProcessing, "")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := q.Recover(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	es := store.EmbeddingStore()
	require.NoError(t, es.SaveEmbedding(ctx, &domain.Embedding{SegmentID: segs[0].ID, Vector: []float32{0.5, 0.25}, Model: "m"}))
	require.NoError(t, es.SaveEmbedding(ctx, &domain.Embedding{SegmentID: segs[0].ID, Vector: []float32{1, 0, 0}, Model: "m"}))
	assert.ErrorIs(t, es.SaveEmbedding(ctx, &domain.Embedding{SegmentID: 99999, Vector: []float32{1}}), domain.ErrSegmentVanished)

	got, err := es.GetEmbedding(ctx, segs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, got.Vector)

	candidates, err := es.Candidates(ctx, []string{"default"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "x", candidates[0].Segment.Content)

	stats, err := store.StatsStore().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Embeddings)
	assert.Equal(t, 2, stats.Queue.Pending)
}

func TestStore_Groups(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	gs := store.GroupStore()

	require.NoError(t, gs.SaveGroup(ctx, &domain.Group{Name: "temp"}))
	assert.ErrorIs(t, gs.SaveGroup(ctx, &domain.Group{Name: "temp"}), domain.ErrAlreadyExists)

	doc := &domain.Document{Key: "doc_g", Title: "g", FileType: "txt", Groups: []string{"temp"}}
	_, err := store.DocumentStore().SaveDocument(ctx, doc, nil)
	require.NoError(t, err)

	require.NoError(t, gs.DeleteGroup(ctx, "temp"))
	got, err := store.DocumentStore().GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, got.Groups)

	assert.ErrorIs(t, gs.DeleteGroup(ctx, "default"), domain.ErrDefaultGroupProtected)
	assert.ErrorIs(t, gs.SetDocumentGroups(ctx, doc.ID, []string{"nope"}), domain.ErrNotFound)
}

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/extract"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/postprocessors"
)

func TestIngest_NewDocument(t *testing.T) {
	store := memory.NewStore()
	svc := newTestIngest(t, store)
	ctx := context.Background()

	res := ingestText(t, svc, "notes", paragraphs("p", 3))
	assert.Equal(t, 3, res.SegmentCount)
	assert.False(t, res.Replaced)
	assert.False(t, res.Skipped)
	assert.Regexp(t, `^doc_[0-9a-f-]{36}$`, res.Key)

	doc, err := store.DocumentStore().GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.DefaultGroupName}, doc.Groups, "no groups means default")

	segs, err := store.DocumentStore().GetSegments(ctx, res.DocumentID)
	require.NoError(t, err)
	require.Len(t, segs, 3)
	for i, seg := range segs {
		assert.Equal(t, i, seg.Index)
		assert.Equal(t, 8, seg.TokenCount, "ceil(30/4)")
	}

	pending, err := store.QueueStore().Pending(ctx, domain.Scope{}, 0, -1)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, e := range pending {
		assert.Equal(t, segs[i].ID, e.SegmentID)
		assert.Equal(t, segs[i].Content, e.Content, "queue holds a copy of the text")
	}
}

func TestIngest_EmptyContent(t *testing.T) {
	store := memory.NewStore()
	res := ingestText(t, newTestIngest(t, store), "blank", "  \n\n ")

	assert.Zero(t, res.SegmentCount)
	stats, err := store.StatsStore().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Zero(t, stats.Queue.Total())
}

func TestIngest_DuplicateReplace(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := newTestIngest(t, store)
	require.NoError(t, store.GroupStore().SaveGroup(ctx, &domain.Group{Name: "work"}))

	first := ingestText(t, svc, "notes", paragraphs("p", 3))
	second := ingestText(t, svc, "notes", paragraphs("q", 2), "work")

	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, first.Key, second.Key)
	assert.True(t, second.Replaced)
	assert.Equal(t, 2, second.SegmentCount)

	doc, err := store.DocumentStore().GetDocument(ctx, first.DocumentID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "work"}, doc.Groups, "memberships are merged")
	assert.Equal(t, paragraphs("q", 2), doc.Content)

	stats, err := store.QueueStore().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pending, "old queue entries are dropped with their segments")
}

func TestIngest_DuplicateReplaceKeepsGroupsWhenNoneGiven(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := newTestIngest(t, store)
	require.NoError(t, store.GroupStore().SaveGroup(ctx, &domain.Group{Name: "work"}))

	first := ingestText(t, svc, "notes", paragraphs("p", 1), "work")
	ingestText(t, svc, "notes", paragraphs("q", 1))

	doc, err := store.DocumentStore().GetDocument(ctx, first.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, doc.Groups)
}

func TestIngest_FailedReplaceKeepsPreviousVersion(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	first := ingestText(t, newTestIngest(t, store), "notes", paragraphs("p", 3))

	pipeline, err := postprocessors.DefaultPipeline(testChunking)
	require.NoError(t, err)
	chunkErr := errors.New("chunker broke")
	writeErr := errors.New("queue unavailable")

	tests := []struct {
		name    string
		svc     *IngestService
		wantErr error
	}{
		{
			name:    "pipeline fails",
			svc:     NewIngestService(store.DocumentStore(), store.GroupStore(), failingPipeline{err: chunkErr}, nil),
			wantErr: chunkErr,
		},
		{
			name:    "store write fails",
			svc:     NewIngestService(&failingDocStore{DocumentStore: store.DocumentStore(), err: writeErr}, store.GroupStore(), pipeline, nil),
			wantErr: writeErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Ingest(ctx, driving.IngestRequest{
				Title:    "notes",
				FileType: "txt",
				Content:  paragraphs("q", 1),
			})
			assert.ErrorIs(t, err, tt.wantErr)

			doc, err := store.DocumentStore().GetDocument(ctx, first.DocumentID)
			require.NoError(t, err)
			assert.Equal(t, paragraphs("p", 3), doc.Content)

			segs, err := store.DocumentStore().GetSegments(ctx, first.DocumentID)
			require.NoError(t, err)
			assert.Len(t, segs, 3)

			pending, err := store.QueueStore().CountPending(ctx, domain.Scope{})
			require.NoError(t, err)
			assert.Equal(t, 3, pending, "every segment keeps its queue entry")
		})
	}
}

func TestIngest_DuplicateSkip(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := newTestIngest(t, store)

	first := ingestText(t, svc, "notes", paragraphs("p", 3))
	res, err := svc.Ingest(ctx, driving.IngestRequest{
		Title:       "notes",
		FileType:    "TXT",
		Content:     "replacement",
		OnDuplicate: driving.DuplicateSkip,
	})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, first.DocumentID, res.DocumentID)
	assert.Equal(t, 3, res.SegmentCount)

	doc, err := store.DocumentStore().GetDocument(ctx, first.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, paragraphs("p", 3), doc.Content)
}

func TestIngest_SameTitleDifferentTypeIsNewDocument(t *testing.T) {
	store := memory.NewStore()
	svc := newTestIngest(t, store)

	a := ingestText(t, svc, "notes", "alpha")
	b, err := svc.Ingest(context.Background(), driving.IngestRequest{Title: "notes", FileType: "md", Content: "beta"})
	require.NoError(t, err)
	assert.NotEqual(t, a.DocumentID, b.DocumentID)
}

func TestIngest_Errors(t *testing.T) {
	store := memory.NewStore()
	svc := newTestIngest(t, store)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     driving.IngestRequest
		wantErr error
	}{
		{"missing title", driving.IngestRequest{FileType: "txt"}, domain.ErrInvalidInput},
		{"missing type", driving.IngestRequest{Title: "x"}, domain.ErrInvalidInput},
		{"bad type", driving.IngestRequest{Title: "x", FileType: "t/x"}, domain.ErrInvalidInput},
		{"bad policy", driving.IngestRequest{Title: "x", FileType: "txt", OnDuplicate: "merge"}, domain.ErrInvalidInput},
		{"unknown group", driving.IngestRequest{Title: "x", FileType: "txt", Groups: []string{"ghost"}}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stats, err := store.StatsStore().Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Documents)
}

func TestIngestFile(t *testing.T) {
	store := memory.NewStore()
	pipeline, err := postprocessors.DefaultPipeline(testChunking)
	require.NoError(t, err)
	svc := NewIngestService(store.DocumentStore(), store.GroupStore(), pipeline, extract.Default())
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "Meeting Notes.MD")
	body := "# Agenda\n\n" + paragraphs("p", 2)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	res, err := svc.IngestFile(ctx, path, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.SegmentCount, "the short heading joins the first paragraph")

	doc, err := store.DocumentStore().GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Meeting Notes", doc.Title)
	assert.Equal(t, "md", doc.FileType)
	assert.Equal(t, int64(len(body)), doc.Size)
	assert.NotContains(t, doc.Content, "#")
}

func TestIngestFile_Errors(t *testing.T) {
	store := memory.NewStore()
	pipeline, err := postprocessors.DefaultPipeline(testChunking)
	require.NoError(t, err)
	svc := NewIngestService(store.DocumentStore(), store.GroupStore(), pipeline, extract.Default())
	ctx := context.Background()
	dir := t.TempDir()

	archive := filepath.Join(dir, "bundle.zip")
	require.NoError(t, os.WriteFile(archive, []byte("PK\x03\x04\x14\x00\x00\x00"), 0o600))
	_, err = svc.IngestFile(ctx, archive, nil, "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = svc.IngestFile(ctx, dir, nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.IngestFile(ctx, filepath.Join(dir, "missing.txt"), nil, "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	noExtractors := newTestIngest(t, store)
	txt := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	_, err = noExtractors.IngestFile(ctx, txt, nil, "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIngestFile_SniffsUnknownExtensions(t *testing.T) {
	store := memory.NewStore()
	pipeline, err := postprocessors.DefaultPipeline(testChunking)
	require.NoError(t, err)
	svc := NewIngestService(store.DocumentStore(), store.GroupStore(), pipeline, extract.Default())
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		file     string
		body     string
		title    string
		fileType string
	}{
		{"README", "Plain notes without an extension.", "README", "txt"},
		{"export.bin", `{"name": "vectorlite", "tags": ["a", "b"]}`, "export", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			res, err := svc.IngestFile(ctx, path, nil, "")
			require.NoError(t, err)

			doc, err := store.DocumentStore().GetDocument(ctx, res.DocumentID)
			require.NoError(t, err)
			assert.Equal(t, tt.title, doc.Title)
			assert.Equal(t, tt.fileType, doc.FileType)
			assert.NotEmpty(t, doc.Content)
		})
	}
}

func TestSplitFileName(t *testing.T) {
	title, ft := SplitFileName("/tmp/dir/Report.Final.DOCX")
	assert.Equal(t, "Report.Final", title)
	assert.Equal(t, "docx", ft)

	title, ft = SplitFileName("README")
	assert.Equal(t, "README", title)
	assert.Empty(t, ft)
}

// Package postgres provides a PostgreSQL implementation of the storage ports.
//
// Vectors are kept in a pgvector "vector" column. Scoring still happens in Go
// so results match the embedded SQLite backend exactly.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Ensure Store implements the interface.
var _ driven.Storage = (*Store)(nil)

// Store is a PostgreSQL-backed storage exposing every store interface.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn and ensures the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &Store{pool: pool}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	logger.Debug("postgres store ready")

	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore { return &documentStore{s} }

// QueueStore returns a QueueStore interface backed by this store.
func (s *Store) QueueStore() driven.QueueStore { return &queueStore{s} }

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore { return &embeddingStore{s} }

// GroupStore returns a GroupStore interface backed by this store.
func (s *Store) GroupStore() driven.GroupStore { return &groupStore{s} }

// StatsStore returns a StatsStore interface backed by this store.
func (s *Store) StatsStore() driven.StatsStore { return &statsStore{s} }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// groupNames maps document IDs to their sorted group names.
func groupNames(ctx context.Context, q querier, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, `
		SELECT dg.document_id, g.name FROM document_groups dg
		JOIN content_groups g ON g.id = dg.group_id
		WHERE dg.document_id = ANY($1)
		ORDER BY g.name
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		out[id] = append(out[id], name)
	}
	return out, rows.Err()
}

// ==================== Document Store ====================

type documentStore struct{ s *Store }

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument writes the document, its memberships when groups are given,
// its replacement segments and their queue entries in one transaction.
func (d *documentStore) SaveDocument(ctx context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error) {
	tx, err := d.s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := saveDocumentRow(ctx, tx, doc); err != nil {
		return nil, err
	}
	if err := clearSegments(ctx, tx, doc.ID); err != nil {
		return nil, err
	}
	saved, err := insertSegments(ctx, tx, doc.ID, segments)
	if err != nil {
		return nil, err
	}
	if err := enqueueSegments(ctx, tx, saved); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return saved, nil
}

func saveDocumentRow(ctx context.Context, tx pgx.Tx, doc *domain.Document) error {
	var err error
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if doc.ID == 0 {
		err = tx.QueryRow(ctx, `
			INSERT INTO documents (doc_key, title, content, file_type, size, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, doc.Key, doc.Title, doc.Content, doc.FileType, doc.Size, doc.CreatedAt, doc.UpdatedAt).Scan(&doc.ID)
	} else {
		var tag pgconn.CommandTag
		tag, err = tx.Exec(ctx, `
			UPDATE documents SET title = $1, content = $2, file_type = $3, size = $4, updated_at = $5
			WHERE id = $6
		`, doc.Title, doc.Content, doc.FileType, doc.Size, doc.UpdatedAt, doc.ID)
		if err == nil && tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: document %q (%s)", domain.ErrAlreadyExists, doc.Title, doc.FileType)
		}
		return fmt.Errorf("saving document: %w", err)
	}

	if len(doc.Groups) > 0 {
		doc.Groups = domain.NormaliseGroups(doc.Groups)
		return setMemberships(ctx, tx, doc.ID, doc.Groups)
	}
	return nil
}

const documentColumns = `id, doc_key, title, content, file_type, size, created_at, updated_at`

func (d *documentStore) scanOne(ctx context.Context, row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Key, &doc.Title, &doc.Content, &doc.FileType,
		&doc.Size, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	names, err := groupNames(ctx, d.s.pool, []int64{doc.ID})
	if err != nil {
		return nil, err
	}
	doc.Groups = names[doc.ID]
	return &doc, nil
}

func (d *documentStore) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	return d.scanOne(ctx, d.s.pool.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id))
}

func (d *documentStore) FindDocument(ctx context.Context, title, fileType string) (*domain.Document, error) {
	return d.scanOne(ctx, d.s.pool.QueryRow(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE title = $1 AND file_type = $2", title, fileType))
}

func (d *documentStore) ListDocuments(ctx context.Context, groups []string) ([]domain.Document, error) {
	query := `SELECT id, doc_key, title, file_type, size, created_at, updated_at FROM documents`
	var args []any
	if len(groups) > 0 {
		query += ` WHERE id IN (
			SELECT dg.document_id FROM document_groups dg
			JOIN content_groups g ON g.id = dg.group_id WHERE g.name = ANY($1))`
		args = append(args, groups)
	}
	query += " ORDER BY id"

	rows, err := d.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	var ids []int64
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Key, &doc.Title, &doc.FileType, &doc.Size,
			&doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
		ids = append(ids, doc.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	names, err := groupNames(ctx, d.s.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Groups = names[docs[i].ID]
	}
	return docs, nil
}

func (d *documentStore) DeleteDocument(ctx context.Context, id int64) error {
	tx, err := d.s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := clearSegments(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM document_groups WHERE document_id = $1", id); err != nil {
		return fmt.Errorf("deleting memberships: %w", err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit(ctx)
}

func insertSegments(ctx context.Context, tx pgx.Tx, documentID int64, segments []domain.Segment) ([]domain.Segment, error) {
	now := time.Now().UTC()
	saved := make([]domain.Segment, 0, len(segments))
	for _, seg := range segments {
		seg.DocumentID = documentID
		seg.CreatedAt = now
		if err := tx.QueryRow(ctx, `
			INSERT INTO segments (document_id, chunk_index, content, token_count, created_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id
		`, seg.DocumentID, seg.Index, seg.Content, seg.TokenCount, seg.CreatedAt).Scan(&seg.ID); err != nil {
			return nil, fmt.Errorf("saving segment %d: %w", seg.Index, err)
		}
		saved = append(saved, seg)
	}
	return saved, nil
}

// enqueueSegments batches one pending entry per segment.
func enqueueSegments(ctx context.Context, tx pgx.Tx, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, seg := range segments {
		batch.Queue(`
			INSERT INTO embedding_queue (segment_id, document_id, content, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, seg.ID, seg.DocumentID, seg.Content, string(domain.QueueStatusPending), now, now)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("enqueueing segments: %w", err)
	}
	return nil
}

func (d *documentStore) GetSegments(ctx context.Context, documentID int64) ([]domain.Segment, error) {
	rows, err := d.s.pool.Query(ctx, `
		SELECT id, document_id, chunk_index, content, token_count, created_at
		FROM segments WHERE document_id = $1 ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var segs []domain.Segment
	for rows.Next() {
		var seg domain.Segment
		if err := rows.Scan(&seg.ID, &seg.DocumentID, &seg.Index, &seg.Content, &seg.TokenCount, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}

func (d *documentStore) GetSegment(ctx context.Context, id int64) (*domain.Segment, error) {
	var seg domain.Segment
	err := d.s.pool.QueryRow(ctx, `
		SELECT id, document_id, chunk_index, content, token_count, created_at FROM segments WHERE id = $1
	`, id).Scan(&seg.ID, &seg.DocumentID, &seg.Index, &seg.Content, &seg.TokenCount, &seg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning segment: %w", err)
	}
	return &seg, nil
}

func clearSegments(ctx context.Context, tx pgx.Tx, documentID int64) error {
	if _, err := tx.Exec(ctx, "DELETE FROM embedding_queue WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("deleting queue entries: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM embeddings WHERE segment_id IN (SELECT id FROM segments WHERE document_id = $1)", documentID); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM segments WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("deleting segments: %w", err)
	}
	return nil
}

// ==================== Queue Store ====================

type queueStore struct{ s *Store }

var _ driven.QueueStore = (*queueStore)(nil)

const queueColumns = `id, segment_id, document_id, content, status, attempts, last_error, created_at, updated_at`

// scopeFilter appends scope conditions using placeholders after the given args.
func scopeFilter(scope domain.Scope, args []any) (string, []any) {
	clause := ""
	if len(scope.DocumentIDs) > 0 {
		args = append(args, scope.DocumentIDs)
		clause += fmt.Sprintf(" AND document_id = ANY($%d)", len(args))
	}
	if len(scope.Groups) > 0 {
		args = append(args, scope.Groups)
		clause += fmt.Sprintf(` AND document_id IN (
			SELECT dg.document_id FROM document_groups dg
			JOIN content_groups g ON g.id = dg.group_id WHERE g.name = ANY($%d))`, len(args))
	}
	return clause, args
}

func (q *queueStore) Pending(ctx context.Context, scope domain.Scope, offset, limit int) ([]domain.QueueEntry, error) {
	where, args := scopeFilter(scope, []any{string(domain.QueueStatusPending)})
	if offset < 0 {
		offset = 0
	}
	args = append(args, offset)
	query := "SELECT " + queueColumns + " FROM embedding_queue WHERE status = $1" + where +
		fmt.Sprintf(" ORDER BY created_at, id OFFSET $%d", len(args))
	if limit >= 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := q.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending entries: %w", err)
	}
	return scanEntries(rows)
}

func (q *queueStore) CountPending(ctx context.Context, scope domain.Scope) (int, error) {
	where, args := scopeFilter(scope, []any{string(domain.QueueStatusPending)})
	var n int
	if err := q.s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM embedding_queue WHERE status = $1"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending entries: %w", err)
	}
	return n, nil
}

func (q *queueStore) Transition(ctx context.Context, id int64, from, to domain.QueueStatus, errMsg string) (bool, error) {
	if _, err := domain.Transition(from, to); err != nil {
		return false, err
	}

	set := "status = $1, updated_at = $2"
	args := []any{string(to), time.Now().UTC()}
	switch {
	case to == domain.QueueStatusFailed:
		args = append(args, errMsg)
		set += fmt.Sprintf(", attempts = attempts + 1, last_error = $%d", len(args))
	case to == domain.QueueStatusPending && from == domain.QueueStatusFailed:
		set += ", attempts = 0, last_error = ''"
	case to == domain.QueueStatusPending, to == domain.QueueStatusCompleted:
		set += ", last_error = ''"
	}
	args = append(args, id, string(from))

	tag, err := q.s.pool.Exec(ctx, fmt.Sprintf(
		"UPDATE embedding_queue SET %s WHERE id = $%d AND status = $%d", set, len(args)-1, len(args)), args...)
	if err != nil {
		return false, fmt.Errorf("updating queue entry %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (q *queueStore) Requeue(ctx context.Context, scope domain.Scope) (int, error) {
	where, args := scopeFilter(scope, []any{string(domain.QueueStatusPending), time.Now().UTC(), string(domain.QueueStatusFailed)})
	tag, err := q.s.pool.Exec(ctx, `
		UPDATE embedding_queue SET status = $1, attempts = 0, last_error = '', updated_at = $2
		WHERE status = $3`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("requeueing failed entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (q *queueStore) Recover(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := q.s.pool.Exec(ctx, `
		UPDATE embedding_queue SET status = $1, last_error = '', updated_at = $2
		WHERE status = $3 AND updated_at < $4
	`, string(domain.QueueStatusPending), time.Now().UTC(), string(domain.QueueStatusProcessing), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("recovering processing entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (q *queueStore) List(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueEntry, error) {
	query := "SELECT " + queueColumns + " FROM embedding_queue"
	var args []any
	if status != "" {
		args = append(args, string(status))
		query += " WHERE status = $1"
	}
	query += " ORDER BY created_at, id"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := q.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying queue: %w", err)
	}
	return scanEntries(rows)
}

func (q *queueStore) Stats(ctx context.Context) (domain.QueueStats, error) {
	return queueStats(ctx, q.s.pool)
}

func queueStats(ctx context.Context, q querier) (domain.QueueStats, error) {
	rows, err := q.Query(ctx, "SELECT status, COUNT(*) FROM embedding_queue GROUP BY status")
	if err != nil {
		return domain.QueueStats{}, fmt.Errorf("querying queue stats: %w", err)
	}
	defer rows.Close()

	var stats domain.QueueStats
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return domain.QueueStats{}, fmt.Errorf("scanning queue stats: %w", err)
		}
		switch domain.QueueStatus(status) {
		case domain.QueueStatusPending:
			stats.Pending = n
		case domain.QueueStatusProcessing:
			stats.Processing = n
		case domain.QueueStatusCompleted:
			stats.Completed = n
		case domain.QueueStatusFailed:
			stats.Failed = n
		}
	}
	return stats, rows.Err()
}

func scanEntries(rows pgx.Rows) ([]domain.QueueEntry, error) {
	defer rows.Close()

	var entries []domain.QueueEntry
	for rows.Next() {
		var e domain.QueueEntry
		var status string
		if err := rows.Scan(&e.ID, &e.SegmentID, &e.DocumentID, &e.Content, &status,
			&e.Attempts, &e.LastError, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning queue entry: %w", err)
		}
		parsed, err := domain.ParseQueueStatus(status)
		if err != nil {
			return nil, err
		}
		e.Status = parsed
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ==================== Embedding Store ====================

type embeddingStore struct{ s *Store }

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

func (es *embeddingStore) SaveEmbedding(ctx context.Context, e *domain.Embedding) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Dimensions = len(e.Vector)

	// The INSERT ... SELECT yields no row when the segment is gone.
	err := es.s.pool.QueryRow(ctx, `
		INSERT INTO embeddings (segment_id, embedding, model, dimensions, created_at)
		SELECT s.id, $2::vector, $3::text, $4::integer, $5::timestamptz FROM segments s WHERE s.id = $1
		ON CONFLICT (segment_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			dimensions = EXCLUDED.dimensions,
			created_at = EXCLUDED.created_at
		RETURNING id
	`, e.SegmentID, pgvector.NewVector(e.Vector), e.Model, e.Dimensions, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: segment %d", domain.ErrSegmentVanished, e.SegmentID)
		}
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

func (es *embeddingStore) GetEmbedding(ctx context.Context, segmentID int64) (*domain.Embedding, error) {
	var e domain.Embedding
	var vec pgvector.Vector
	err := es.s.pool.QueryRow(ctx, `
		SELECT id, segment_id, embedding, model, dimensions, created_at FROM embeddings WHERE segment_id = $1
	`, segmentID).Scan(&e.ID, &e.SegmentID, &vec, &e.Model, &e.Dimensions, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}
	e.Vector = vec.Slice()
	return &e, nil
}

func (es *embeddingStore) Candidates(ctx context.Context, groups []string) ([]domain.Candidate, error) {
	query := `
		SELECT e.embedding,
			s.id, s.document_id, s.chunk_index, s.content, s.token_count, s.created_at,
			d.id, d.doc_key, d.title, d.file_type, d.size, d.created_at, d.updated_at
		FROM embeddings e
		JOIN segments s ON s.id = e.segment_id
		JOIN documents d ON d.id = s.document_id`
	var args []any
	if len(groups) > 0 {
		query += ` WHERE d.id IN (
			SELECT dg.document_id FROM document_groups dg
			JOIN content_groups g ON g.id = dg.group_id WHERE g.name = ANY($1))`
		args = append(args, groups)
	}
	query += " ORDER BY s.id"

	rows, err := es.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	seen := make(map[int64]bool)
	var ids []int64
	for rows.Next() {
		var c domain.Candidate
		var vec pgvector.Vector
		if err := rows.Scan(&vec,
			&c.Segment.ID, &c.Segment.DocumentID, &c.Segment.Index, &c.Segment.Content,
			&c.Segment.TokenCount, &c.Segment.CreatedAt,
			&c.Document.ID, &c.Document.Key, &c.Document.Title, &c.Document.FileType,
			&c.Document.Size, &c.Document.CreatedAt, &c.Document.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		c.Vector = vec.Slice()
		out = append(out, c)
		if !seen[c.Document.ID] {
			seen[c.Document.ID] = true
			ids = append(ids, c.Document.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}

	names, err := groupNames(ctx, es.s.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Document.Groups = names[out[i].Document.ID]
	}
	return out, nil
}

// ==================== Group Store ====================

type groupStore struct{ s *Store }

var _ driven.GroupStore = (*groupStore)(nil)

func (gs *groupStore) SaveGroup(ctx context.Context, g *domain.Group) error {
	if g.Color == "" {
		g.Color = domain.DefaultGroupColor
	}

	var err error
	if g.ID == 0 {
		if g.CreatedAt.IsZero() {
			g.CreatedAt = time.Now().UTC()
		}
		err = gs.s.pool.QueryRow(ctx, `
			INSERT INTO content_groups (name, description, color, created_at) VALUES ($1, $2, $3, $4) RETURNING id
		`, g.Name, g.Description, g.Color, g.CreatedAt).Scan(&g.ID)
	} else {
		var tag pgconn.CommandTag
		tag, err = gs.s.pool.Exec(ctx, `
			UPDATE content_groups SET name = $1, description = $2, color = $3 WHERE id = $4
		`, g.Name, g.Description, g.Color, g.ID)
		if err == nil && tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: group %q", domain.ErrAlreadyExists, g.Name)
		}
		return fmt.Errorf("saving group: %w", err)
	}
	return nil
}

const groupSelect = `
	SELECT g.id, g.name, g.description, g.color, g.created_at, COUNT(dg.document_id)
	FROM content_groups g
	LEFT JOIN document_groups dg ON dg.group_id = g.id`

func (gs *groupStore) GetGroup(ctx context.Context, name string) (*domain.Group, error) {
	var g domain.Group
	err := gs.s.pool.QueryRow(ctx, groupSelect+" WHERE g.name = $1 GROUP BY g.id", name).
		Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.CreatedAt, &g.DocumentCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning group: %w", err)
	}
	return &g, nil
}

func (gs *groupStore) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := gs.s.pool.Query(ctx, groupSelect+" GROUP BY g.id ORDER BY g.name")
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.CreatedAt, &g.DocumentCount); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (gs *groupStore) DeleteGroup(ctx context.Context, name string) error {
	if name == domain.DefaultGroupName {
		return domain.ErrDefaultGroupProtected
	}

	tx, err := gs.s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, "DELETE FROM content_groups WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	// Memberships go with the group via ON DELETE CASCADE.
	if _, err := tx.Exec(ctx, `
		INSERT INTO document_groups (document_id, group_id)
		SELECT d.id, (SELECT id FROM content_groups WHERE name = $1)
		FROM documents d
		WHERE NOT EXISTS (SELECT 1 FROM document_groups dg WHERE dg.document_id = d.id)
	`, domain.DefaultGroupName); err != nil {
		return fmt.Errorf("reattaching orphaned documents: %w", err)
	}
	return tx.Commit(ctx)
}

func (gs *groupStore) SetDocumentGroups(ctx context.Context, documentID int64, names []string) error {
	tx, err := gs.s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)", documentID).Scan(&exists); err != nil {
		return fmt.Errorf("checking document: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := setMemberships(ctx, tx, documentID, domain.NormaliseGroups(names)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func setMemberships(ctx context.Context, tx pgx.Tx, documentID int64, names []string) error {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		var id int64
		if err := tx.QueryRow(ctx, "SELECT id FROM content_groups WHERE name = $1", name).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: group %q", domain.ErrNotFound, name)
			}
			return fmt.Errorf("resolving group %q: %w", name, err)
		}
		ids = append(ids, id)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM document_groups WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("clearing memberships: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO document_groups (document_id, group_id) SELECT $1::bigint, unnest($2::bigint[])
	`, documentID, ids); err != nil {
		return fmt.Errorf("saving memberships: %w", err)
	}
	return nil
}

// ==================== Stats Store ====================

type statsStore struct{ s *Store }

var _ driven.StatsStore = (*statsStore)(nil)

func (st *statsStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := st.s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM segments),
			(SELECT COUNT(*) FROM embeddings),
			(SELECT COUNT(*) FROM content_groups)
	`).Scan(&stats.Documents, &stats.Segments, &stats.Embeddings, &stats.Groups)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	if stats.Queue, err = queueStats(ctx, st.s.pool); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

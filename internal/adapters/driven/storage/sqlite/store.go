package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/vector"
)

// DatabaseFile is the file name used inside the data directory.
const DatabaseFile = "vectorlite.db"

// Ensure Store implements the interface.
var _ driven.Storage = (*Store)(nil)

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.vectorlite/data/vectorlite.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vectorlite", "data")
	}

	return Open(filepath.Join(dataDir, DatabaseFile))
}

// Open opens (creating if needed) the SQLite database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL for concurrent readers; foreign_keys is set per connection through the DSN.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// QueueStore returns a QueueStore interface backed by this store.
func (s *Store) QueueStore() driven.QueueStore {
	return &queueStore{store: s}
}

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore {
	return &embeddingStore{store: s}
}

// GroupStore returns a GroupStore interface backed by this store.
func (s *Store) GroupStore() driven.GroupStore {
	return &groupStore{store: s}
}

// StatsStore returns a StatsStore interface backed by this store.
func (s *Store) StatsStore() driven.StatsStore {
	return &statsStore{store: s}
}

// migrate runs all pending migrations, recording each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument writes the document, its memberships when groups are given,
// its replacement segments and their queue entries in one transaction.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

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

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return saved, nil
}

// saveDocumentRow inserts or updates the document row and its memberships.
func saveDocumentRow(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if doc.ID == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO documents (doc_key, title, content, file_type, size, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, doc.Key, doc.Title, doc.Content, doc.FileType, doc.Size, doc.CreatedAt, doc.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: document %q (%s)", domain.ErrAlreadyExists, doc.Title, doc.FileType)
			}
			return fmt.Errorf("inserting document: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading document id: %w", err)
		}
		doc.ID = id
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE documents SET title = ?, content = ?, file_type = ?, size = ?, updated_at = ?
			WHERE id = ?
		`, doc.Title, doc.Content, doc.FileType, doc.Size, doc.UpdatedAt, doc.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: document %q (%s)", domain.ErrAlreadyExists, doc.Title, doc.FileType)
			}
			return fmt.Errorf("updating document: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
	}

	if len(doc.Groups) > 0 {
		doc.Groups = domain.NormaliseGroups(doc.Groups)
		return setMemberships(ctx, tx, doc.ID, doc.Groups)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, doc_key, title, content, file_type, size, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return s.scanOne(ctx, row)
}

// FindDocument retrieves a document by title and file type.
func (s *documentStore) FindDocument(ctx context.Context, title, fileType string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, doc_key, title, content, file_type, size, created_at, updated_at
		FROM documents WHERE title = ? AND file_type = ?
	`, title, fileType)
	return s.scanOne(ctx, row)
}

func (s *documentStore) scanOne(ctx context.Context, row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Key, &doc.Title, &doc.Content, &doc.FileType,
		&doc.Size, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	groups, err := groupNames(ctx, s.store.db, []int64{doc.ID})
	if err != nil {
		return nil, err
	}
	doc.Groups = groups[doc.ID]
	return &doc, nil
}

// ListDocuments returns documents in any of groups, or all documents.
func (s *documentStore) ListDocuments(ctx context.Context, groups []string) ([]domain.Document, error) {
	query := `SELECT id, doc_key, title, file_type, size, created_at, updated_at FROM documents`
	var args []any
	if len(groups) > 0 {
		clause, gargs := groupFilter("id", groups)
		query += " WHERE " + clause
		args = gargs
	}
	query += " ORDER BY id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
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

	names, err := groupNames(ctx, s.store.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Groups = names[docs[i].ID]
	}
	return docs, nil
}

// DeleteDocument removes a document and everything that hangs off it.
func (s *documentStore) DeleteDocument(ctx context.Context, id int64) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := clearSegments(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM document_groups WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("deleting memberships: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertSegments stores segments for a document, returning them with IDs.
func insertSegments(ctx context.Context, tx *sql.Tx, documentID int64, segments []domain.Segment) ([]domain.Segment, error) {
	saved := make([]domain.Segment, 0, len(segments))
	if len(segments) == 0 {
		return saved, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (document_id, chunk_index, content, token_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, seg := range segments {
		seg.DocumentID = documentID
		seg.CreatedAt = now
		res, err := stmt.ExecContext(ctx, seg.DocumentID, seg.Index, seg.Content, seg.TokenCount, seg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("saving segment %d: %w", seg.Index, err)
		}
		if seg.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("reading segment id: %w", err)
		}
		saved = append(saved, seg)
	}
	return saved, nil
}

// GetSegments returns a document's segments ordered by index.
func (s *documentStore) GetSegments(ctx context.Context, documentID int64) ([]domain.Segment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, token_count, created_at
		FROM segments WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var segments []domain.Segment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var seg domain.Segment
		if err := rows.Scan(&seg.ID, &seg.DocumentID, &seg.Index, &seg.Content,
			&seg.TokenCount, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}
	return segments, nil
}

// GetSegment retrieves one segment by ID.
func (s *documentStore) GetSegment(ctx context.Context, id int64) (*domain.Segment, error) {
	var seg domain.Segment
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, chunk_index, content, token_count, created_at
		FROM segments WHERE id = ?
	`, id).Scan(&seg.ID, &seg.DocumentID, &seg.Index, &seg.Content, &seg.TokenCount, &seg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning segment: %w", err)
	}
	return &seg, nil
}

// clearSegments deletes a document's queue entries, embeddings and segments.
func clearSegments(ctx context.Context, tx *sql.Tx, documentID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM embedding_queue WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting queue entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM embeddings WHERE segment_id IN (SELECT id FROM segments WHERE document_id = ?)
	`, documentID); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM segments WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting segments: %w", err)
	}
	return nil
}

// enqueueSegments creates a pending entry per segment.
func enqueueSegments(ctx context.Context, tx *sql.Tx, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embedding_queue (segment_id, document_id, content, status, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, '', ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx, seg.ID, seg.DocumentID, seg.Content,
			domain.QueueStatusPending, now, now); err != nil {
			return fmt.Errorf("enqueueing segment %d: %w", seg.ID, err)
		}
	}
	return nil
}

// ==================== Queue Store ====================

// queueStore implements driven.QueueStore.
type queueStore struct {
	store *Store
}

var _ driven.QueueStore = (*queueStore)(nil)

const queueColumns = `id, segment_id, document_id, content, status, attempts, last_error, created_at, updated_at`

// Pending returns pending entries in scope, oldest first.
func (s *queueStore) Pending(ctx context.Context, scope domain.Scope, offset, limit int) ([]domain.QueueEntry, error) {
	where, args := scopeFilter(scope)
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = -1 // SQLite: no limit
	}
	args = append([]any{domain.QueueStatusPending}, args...)
	args = append(args, limit, offset)

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+queueColumns+` FROM embedding_queue
		WHERE status = ?`+where+`
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending entries: %w", err)
	}
	return scanEntries(rows)
}

// CountPending counts pending entries in scope.
func (s *queueStore) CountPending(ctx context.Context, scope domain.Scope) (int, error) {
	where, args := scopeFilter(scope)
	args = append([]any{domain.QueueStatusPending}, args...)

	var n int
	if err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embedding_queue WHERE status = ?"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending entries: %w", err)
	}
	return n, nil
}

// Transition moves an entry between states with a conditional update,
// so two drains can never claim the same entry.
func (s *queueStore) Transition(ctx context.Context, id int64, from, to domain.QueueStatus, errMsg string) (bool, error) {
	if _, err := domain.Transition(from, to); err != nil {
		return false, err
	}

	set := "status = ?, updated_at = ?"
	args := []any{to, time.Now().UTC()}
	switch {
	case to == domain.QueueStatusFailed:
		set += ", attempts = attempts + 1, last_error = ?"
		args = append(args, errMsg)
	case to == domain.QueueStatusPending && from == domain.QueueStatusFailed:
		set += ", attempts = 0, last_error = ''"
	case to == domain.QueueStatusPending, to == domain.QueueStatusCompleted:
		set += ", last_error = ''"
	}
	args = append(args, id, from)

	res, err := s.store.db.ExecContext(ctx,
		"UPDATE embedding_queue SET "+set+" WHERE id = ? AND status = ?", args...)
	if err != nil {
		return false, fmt.Errorf("updating queue entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n == 1, nil
}

// Requeue resets failed entries in scope.
func (s *queueStore) Requeue(ctx context.Context, scope domain.Scope) (int, error) {
	where, sargs := scopeFilter(scope)
	args := []any{domain.QueueStatusPending, time.Now().UTC(), domain.QueueStatusFailed}
	args = append(args, sargs...)

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE embedding_queue SET status = ?, attempts = 0, last_error = '', updated_at = ?
		WHERE status = ?`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("requeueing failed entries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Recover resets stranded processing entries.
func (s *queueStore) Recover(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE embedding_queue SET status = ?, last_error = '', updated_at = ?
		WHERE status = ? AND updated_at < ?
	`, domain.QueueStatusPending, time.Now().UTC(), domain.QueueStatusProcessing, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("recovering processing entries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// List returns entries by status, oldest first.
func (s *queueStore) List(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueEntry, error) {
	query := "SELECT " + queueColumns + " FROM embedding_queue"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying queue: %w", err)
	}
	return scanEntries(rows)
}

// Stats counts entries per status.
func (s *queueStore) Stats(ctx context.Context) (domain.QueueStats, error) {
	return queueStats(ctx, s.store.db)
}

func queueStats(ctx context.Context, db *sql.DB) (domain.QueueStats, error) {
	rows, err := db.QueryContext(ctx, "SELECT status, COUNT(*) FROM embedding_queue GROUP BY status")
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

func scanEntries(rows *sql.Rows) ([]domain.QueueEntry, error) {
	defer rows.Close()

	var entries []domain.QueueEntry //nolint:prealloc // size unknown from query
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating queue entries: %w", err)
	}
	return entries, nil
}

// scopeFilter returns an " AND ..." clause restricting embedding_queue rows.
func scopeFilter(scope domain.Scope) (string, []any) {
	var clause strings.Builder
	var args []any

	if len(scope.DocumentIDs) > 0 {
		clause.WriteString(" AND document_id IN (" + placeholders(len(scope.DocumentIDs)) + ")")
		for _, id := range scope.DocumentIDs {
			args = append(args, id)
		}
	}
	if len(scope.Groups) > 0 {
		groupClause, gargs := groupFilter("document_id", scope.Groups)
		clause.WriteString(" AND " + groupClause)
		args = append(args, gargs...)
	}
	return clause.String(), args
}

// groupFilter restricts column (a document ID) to members of any of groups.
func groupFilter(column string, groups []string) (string, []any) {
	args := make([]any, len(groups))
	for i, g := range groups {
		args[i] = g
	}
	return column + ` IN (
		SELECT dg.document_id FROM document_groups dg
		JOIN content_groups g ON g.id = dg.group_id
		WHERE g.name IN (` + placeholders(len(groups)) + `))`, args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// ==================== Embedding Store ====================

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

// SaveEmbedding upserts the vector for a segment.
func (s *embeddingStore) SaveEmbedding(ctx context.Context, e *domain.Embedding) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM segments WHERE id = ?", e.SegmentID).Scan(&exists); err != nil {
		return fmt.Errorf("checking segment: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: segment %d", domain.ErrSegmentVanished, e.SegmentID)
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Dimensions = len(e.Vector)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO embeddings (segment_id, vector, model, dimensions, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(segment_id) DO UPDATE SET
			vector = excluded.vector,
			model = excluded.model,
			dimensions = excluded.dimensions,
			created_at = excluded.created_at
	`, e.SegmentID, vector.Encode(e.Vector), e.Model, e.Dimensions, e.CreatedAt); err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}

	if err := tx.QueryRowContext(ctx, "SELECT id FROM embeddings WHERE segment_id = ?", e.SegmentID).Scan(&e.ID); err != nil {
		return fmt.Errorf("reading embedding id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetEmbedding retrieves the vector for a segment.
func (s *embeddingStore) GetEmbedding(ctx context.Context, segmentID int64) (*domain.Embedding, error) {
	var e domain.Embedding
	var blob []byte
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, segment_id, vector, model, dimensions, created_at
		FROM embeddings WHERE segment_id = ?
	`, segmentID).Scan(&e.ID, &e.SegmentID, &blob, &e.Model, &e.Dimensions, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}
	if e.Vector, err = vector.Decode(blob); err != nil {
		return nil, fmt.Errorf("decoding embedding %d: %w", e.ID, err)
	}
	return &e, nil
}

// Candidates loads stored vectors with their segments and documents.
func (s *embeddingStore) Candidates(ctx context.Context, groups []string) ([]domain.Candidate, error) {
	query := `
		SELECT e.vector,
			s.id, s.document_id, s.chunk_index, s.content, s.token_count, s.created_at,
			d.id, d.doc_key, d.title, d.file_type, d.size, d.created_at, d.updated_at
		FROM embeddings e
		JOIN segments s ON s.id = e.segment_id
		JOIN documents d ON d.id = s.document_id`
	var args []any
	if len(groups) > 0 {
		clause, gargs := groupFilter("d.id", groups)
		query += " WHERE " + clause
		args = gargs
	}
	query += " ORDER BY s.id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate //nolint:prealloc // size unknown from query
	docIDs := make(map[int64]bool)
	for rows.Next() {
		var c domain.Candidate
		var blob []byte
		if err := rows.Scan(&blob,
			&c.Segment.ID, &c.Segment.DocumentID, &c.Segment.Index, &c.Segment.Content,
			&c.Segment.TokenCount, &c.Segment.CreatedAt,
			&c.Document.ID, &c.Document.Key, &c.Document.Title, &c.Document.FileType,
			&c.Document.Size, &c.Document.CreatedAt, &c.Document.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		if c.Vector, err = vector.Decode(blob); err != nil {
			return nil, fmt.Errorf("decoding vector for segment %d: %w", c.Segment.ID, err)
		}
		candidates = append(candidates, c)
		docIDs[c.Document.ID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}

	ids := make([]int64, 0, len(docIDs))
	for id := range docIDs {
		ids = append(ids, id)
	}
	names, err := groupNames(ctx, s.store.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Document.Groups = names[candidates[i].Document.ID]
	}
	return candidates, nil
}

// ==================== Group Store ====================

// groupStore implements driven.GroupStore.
type groupStore struct {
	store *Store
}

var _ driven.GroupStore = (*groupStore)(nil)

// SaveGroup inserts or updates a group.
func (s *groupStore) SaveGroup(ctx context.Context, g *domain.Group) error {
	if g.Color == "" {
		g.Color = domain.DefaultGroupColor
	}

	if g.ID == 0 {
		if g.CreatedAt.IsZero() {
			g.CreatedAt = time.Now().UTC()
		}
		res, err := s.store.db.ExecContext(ctx, `
			INSERT INTO content_groups (name, description, color, created_at) VALUES (?, ?, ?, ?)
		`, g.Name, g.Description, g.Color, g.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: group %q", domain.ErrAlreadyExists, g.Name)
			}
			return fmt.Errorf("saving group: %w", err)
		}
		g.ID, err = res.LastInsertId()
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE content_groups SET name = ?, description = ?, color = ? WHERE id = ?
	`, g.Name, g.Description, g.Color, g.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: group %q", domain.ErrAlreadyExists, g.Name)
		}
		return fmt.Errorf("updating group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const groupSelect = `
	SELECT g.id, g.name, g.description, g.color, g.created_at, COUNT(dg.document_id)
	FROM content_groups g
	LEFT JOIN document_groups dg ON dg.group_id = g.id`

// GetGroup retrieves a group by name.
func (s *groupStore) GetGroup(ctx context.Context, name string) (*domain.Group, error) {
	var g domain.Group
	err := s.store.db.QueryRowContext(ctx, groupSelect+`
		WHERE g.name = ?
		GROUP BY g.id
	`, name).Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.CreatedAt, &g.DocumentCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning group: %w", err)
	}
	return &g, nil
}

// ListGroups returns all groups ordered by name.
func (s *groupStore) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := s.store.db.QueryContext(ctx, groupSelect+`
		GROUP BY g.id
		ORDER BY g.name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group //nolint:prealloc // size unknown from query
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.CreatedAt, &g.DocumentCount); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup removes a group; orphaned documents fall back to the default group.
func (s *groupStore) DeleteGroup(ctx context.Context, name string) error {
	if name == domain.DefaultGroupName {
		return domain.ErrDefaultGroupProtected
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM content_groups WHERE name = ?", name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("finding group: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_groups WHERE group_id = ?", id); err != nil {
		return fmt.Errorf("deleting memberships: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM content_groups WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_groups (document_id, group_id)
		SELECT d.id, (SELECT id FROM content_groups WHERE name = ?)
		FROM documents d
		WHERE NOT EXISTS (SELECT 1 FROM document_groups dg WHERE dg.document_id = d.id)
	`, domain.DefaultGroupName); err != nil {
		return fmt.Errorf("reattaching orphaned documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SetDocumentGroups replaces a document's memberships.
func (s *groupStore) SetDocumentGroups(ctx context.Context, documentID int64, names []string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", documentID).Scan(&exists); err != nil {
		return fmt.Errorf("checking document: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	if err := setMemberships(ctx, tx, documentID, domain.NormaliseGroups(names)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// setMemberships resolves names and replaces the document's group rows.
func setMemberships(ctx context.Context, tx *sql.Tx, documentID int64, names []string) error {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		var id int64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM content_groups WHERE name = ?", name).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: group %q", domain.ErrNotFound, name)
			}
			return fmt.Errorf("resolving group %q: %w", name, err)
		}
		ids = append(ids, id)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_groups WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing memberships: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_groups (document_id, group_id) VALUES (?, ?)", documentID, id); err != nil {
			return fmt.Errorf("saving membership: %w", err)
		}
	}
	return nil
}

// groupNames maps each document ID to its group names, sorted.
func groupNames(ctx context.Context, db *sql.DB, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.QueryContext(ctx, `
		SELECT dg.document_id, g.name FROM document_groups dg
		JOIN content_groups g ON g.id = dg.group_id
		WHERE dg.document_id IN (`+placeholders(len(ids))+`)
		ORDER BY g.name
	`, args...)
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

// ==================== Stats Store ====================

// statsStore implements driven.StatsStore.
type statsStore struct {
	store *Store
}

var _ driven.StatsStore = (*statsStore)(nil)

// Stats returns aggregate counts.
func (s *statsStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.store.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM segments),
			(SELECT COUNT(*) FROM embeddings),
			(SELECT COUNT(*) FROM content_groups)
	`).Scan(&stats.Documents, &stats.Segments, &stats.Embeddings, &stats.Groups)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("querying stats: %w", err)
	}

	if stats.Queue, err = queueStats(ctx, s.store.db); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

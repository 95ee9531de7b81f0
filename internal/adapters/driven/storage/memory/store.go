package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Storage = (*Store)(nil)

// Store is an in-memory implementation of every store interface, guarded by
// a single lock so cross-store operations behave like one transaction.
// Values are copied in and out; callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	seq int64

	documents  map[int64]domain.Document
	segments   map[int64]domain.Segment
	embeddings map[int64]domain.Embedding // keyed by segment ID
	queue      map[int64]domain.QueueEntry
	groups     map[int64]domain.Group
	members    map[int64]map[int64]bool // document ID -> group IDs

	now func() time.Time
}

// NewStore creates an empty store holding only the default group.
func NewStore() *Store {
	s := &Store{
		documents:  make(map[int64]domain.Document),
		segments:   make(map[int64]domain.Segment),
		embeddings: make(map[int64]domain.Embedding),
		queue:      make(map[int64]domain.QueueEntry),
		groups:     make(map[int64]domain.Group),
		members:    make(map[int64]map[int64]bool),
		now:        time.Now,
	}
	id := s.nextID()
	s.groups[id] = domain.Group{
		ID:          id,
		Name:        domain.DefaultGroupName,
		Description: domain.DefaultGroupDescription,
		Color:       domain.DefaultGroupColor,
		CreatedAt:   s.now(),
	}
	return s
}

// SetClock replaces the time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close is a no-op.
func (s *Store) Close() error {
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

// nextID returns a fresh identifier (caller must hold lock).
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// groupByName finds a group (caller must hold lock).
func (s *Store) groupByName(name string) (domain.Group, bool) {
	for _, g := range s.groups {
		if g.Name == name {
			return g, true
		}
	}
	return domain.Group{}, false
}

// groupNames returns a document's group names, sorted (caller must hold lock).
func (s *Store) groupNames(docID int64) []string {
	var names []string
	for gid := range s.members[docID] {
		names = append(names, s.groups[gid].Name)
	}
	sort.Strings(names)
	return names
}

// inGroups reports whether a document belongs to any of names (caller must hold lock).
func (s *Store) inGroups(docID int64, names []string) bool {
	for gid := range s.members[docID] {
		for _, n := range names {
			if s.groups[gid].Name == n {
				return true
			}
		}
	}
	return false
}

// resolveGroups maps names to IDs, failing on the first unknown name (caller must hold lock).
func (s *Store) resolveGroups(names []string) (map[int64]bool, error) {
	ids := make(map[int64]bool, len(names))
	for _, n := range names {
		g, ok := s.groupByName(n)
		if !ok {
			return nil, fmt.Errorf("%w: group %q", domain.ErrNotFound, n)
		}
		ids[g.ID] = true
	}
	return ids, nil
}

// clearSegments drops a document's segments with their embeddings and queue entries (caller must hold lock).
func (s *Store) clearSegments(docID int64) {
	for id, seg := range s.segments {
		if seg.DocumentID == docID {
			delete(s.embeddings, id)
			delete(s.segments, id)
		}
	}
	for id, e := range s.queue {
		if e.DocumentID == docID {
			delete(s.queue, id)
		}
	}
}

// ==================== Document Store ====================

type documentStore struct{ s *Store }

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument checks every precondition before mutating, so a failed save
// leaves the store untouched.
func (d *documentStore) SaveDocument(_ context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.documents {
		if other.ID != doc.ID && other.Title == doc.Title && other.FileType == doc.FileType {
			return nil, fmt.Errorf("%w: document %q (%s)", domain.ErrAlreadyExists, doc.Title, doc.FileType)
		}
	}

	var groupIDs map[int64]bool
	if len(doc.Groups) > 0 {
		doc.Groups = domain.NormaliseGroups(doc.Groups)
		ids, err := s.resolveGroups(doc.Groups)
		if err != nil {
			return nil, err
		}
		groupIDs = ids
	}

	now := s.now()
	if doc.ID == 0 {
		doc.ID = s.nextID()
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
	} else {
		existing, ok := s.documents[doc.ID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		doc.Key = existing.Key
		doc.CreatedAt = existing.CreatedAt
	}
	doc.UpdatedAt = now

	stored := *doc
	stored.Groups = nil
	s.documents[doc.ID] = stored
	if groupIDs != nil {
		s.members[doc.ID] = groupIDs
	}

	s.clearSegments(doc.ID)
	saved := make([]domain.Segment, 0, len(segments))
	for _, seg := range segments {
		seg.ID = s.nextID()
		seg.DocumentID = doc.ID
		seg.CreatedAt = now
		s.segments[seg.ID] = seg
		saved = append(saved, seg)

		id := s.nextID()
		s.queue[id] = domain.QueueEntry{
			ID:         id,
			SegmentID:  seg.ID,
			DocumentID: seg.DocumentID,
			Content:    seg.Content,
			Status:     domain.QueueStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	return saved, nil
}

func (d *documentStore) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	s := d.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc.Groups = s.groupNames(id)
	return &doc, nil
}

func (d *documentStore) FindDocument(_ context.Context, title, fileType string) (*domain.Document, error) {
	s := d.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.documents {
		if doc.Title == title && doc.FileType == fileType {
			doc.Groups = s.groupNames(doc.ID)
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *documentStore) ListDocuments(_ context.Context, groups []string) ([]domain.Document, error) {
	s := d.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if len(groups) > 0 && !s.inGroups(doc.ID, groups) {
			continue
		}
		doc.Content = ""
		doc.Groups = s.groupNames(doc.ID)
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (d *documentStore) DeleteDocument(_ context.Context, id int64) error {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	s.clearSegments(id)
	delete(s.members, id)
	delete(s.documents, id)
	return nil
}

func (d *documentStore) GetSegments(_ context.Context, documentID int64) ([]domain.Segment, error) {
	s := d.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var segs []domain.Segment
	for _, seg := range s.segments {
		if seg.DocumentID == documentID {
			segs = append(segs, seg)
		}
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].Index < segs[j].Index })
	return segs, nil
}

func (d *documentStore) GetSegment(_ context.Context, id int64) (*domain.Segment, error) {
	s := d.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	seg, ok := s.segments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &seg, nil
}

// ==================== Queue Store ====================

type queueStore struct{ s *Store }

var _ driven.QueueStore = (*queueStore)(nil)

// matching returns entries with status in scope, oldest first (caller must hold lock).
func (q *queueStore) matching(status domain.QueueStatus, scope domain.Scope) []domain.QueueEntry {
	s := q.s
	var docIDs map[int64]bool
	if len(scope.DocumentIDs) > 0 {
		docIDs = make(map[int64]bool, len(scope.DocumentIDs))
		for _, id := range scope.DocumentIDs {
			docIDs[id] = true
		}
	}

	var out []domain.QueueEntry
	for _, e := range s.queue {
		if status != "" && e.Status != status {
			continue
		}
		if docIDs != nil && !docIDs[e.DocumentID] {
			continue
		}
		if len(scope.Groups) > 0 && !s.inGroups(e.DocumentID, scope.Groups) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (q *queueStore) Pending(_ context.Context, scope domain.Scope, offset, limit int) ([]domain.QueueEntry, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	all := q.matching(domain.QueueStatusPending, scope)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (q *queueStore) CountPending(_ context.Context, scope domain.Scope) (int, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	return len(q.matching(domain.QueueStatusPending, scope)), nil
}

func (q *queueStore) Transition(_ context.Context, id int64, from, to domain.QueueStatus, errMsg string) (bool, error) {
	if _, err := domain.Transition(from, to); err != nil {
		return false, err
	}

	s := q.s
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.queue[id]
	if !ok || e.Status != from {
		return false, nil
	}
	if err := e.Advance(to, errMsg); err != nil {
		return false, err
	}
	e.UpdatedAt = s.now()
	s.queue[id] = e
	return true, nil
}

func (q *queueStore) Requeue(_ context.Context, scope domain.Scope) (int, error) {
	s := q.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range q.matching(domain.QueueStatusFailed, scope) {
		if err := e.Advance(domain.QueueStatusPending, ""); err != nil {
			return n, err
		}
		e.UpdatedAt = s.now()
		s.queue[e.ID] = e
		n++
	}
	return n, nil
}

func (q *queueStore) Recover(_ context.Context, cutoff time.Time) (int, error) {
	s := q.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range q.matching(domain.QueueStatusProcessing, domain.Scope{}) {
		if !e.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := e.Advance(domain.QueueStatusPending, ""); err != nil {
			return n, err
		}
		e.UpdatedAt = s.now()
		s.queue[e.ID] = e
		n++
	}
	return n, nil
}

func (q *queueStore) List(_ context.Context, status domain.QueueStatus, limit int) ([]domain.QueueEntry, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	out := q.matching(status, domain.Scope{})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (q *queueStore) Stats(_ context.Context) (domain.QueueStats, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	return q.s.queueStats(), nil
}

// queueStats counts entries per status (caller must hold lock).
func (s *Store) queueStats() domain.QueueStats {
	var stats domain.QueueStats
	for _, e := range s.queue {
		switch e.Status {
		case domain.QueueStatusPending:
			stats.Pending++
		case domain.QueueStatusProcessing:
			stats.Processing++
		case domain.QueueStatusCompleted:
			stats.Completed++
		case domain.QueueStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// ==================== Embedding Store ====================

type embeddingStore struct{ s *Store }

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

func (es *embeddingStore) SaveEmbedding(_ context.Context, e *domain.Embedding) error {
	s := es.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.segments[e.SegmentID]; !ok {
		return fmt.Errorf("%w: segment %d", domain.ErrSegmentVanished, e.SegmentID)
	}

	if existing, ok := s.embeddings[e.SegmentID]; ok {
		e.ID = existing.ID
	} else {
		e.ID = s.nextID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.Dimensions = len(e.Vector)

	stored := *e
	stored.Vector = append([]float32(nil), e.Vector...)
	s.embeddings[e.SegmentID] = stored
	return nil
}

func (es *embeddingStore) GetEmbedding(_ context.Context, segmentID int64) (*domain.Embedding, error) {
	s := es.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.embeddings[segmentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Vector = append([]float32(nil), e.Vector...)
	return &e, nil
}

func (es *embeddingStore) Candidates(_ context.Context, groups []string) ([]domain.Candidate, error) {
	s := es.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Candidate, 0, len(s.embeddings))
	for segID, e := range s.embeddings {
		seg := s.segments[segID]
		doc, ok := s.documents[seg.DocumentID]
		if !ok {
			continue
		}
		if len(groups) > 0 && !s.inGroups(doc.ID, groups) {
			continue
		}
		doc.Content = ""
		doc.Groups = s.groupNames(doc.ID)
		out = append(out, domain.Candidate{
			Segment:  seg,
			Document: doc,
			Vector:   append([]float32(nil), e.Vector...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Segment.ID < out[j].Segment.ID })
	return out, nil
}

// ==================== Group Store ====================

type groupStore struct{ s *Store }

var _ driven.GroupStore = (*groupStore)(nil)

func (gs *groupStore) SaveGroup(_ context.Context, g *domain.Group) error {
	s := gs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if other, ok := s.groupByName(g.Name); ok && other.ID != g.ID {
		return fmt.Errorf("%w: group %q", domain.ErrAlreadyExists, g.Name)
	}
	if g.Color == "" {
		g.Color = domain.DefaultGroupColor
	}

	if g.ID == 0 {
		g.ID = s.nextID()
		if g.CreatedAt.IsZero() {
			g.CreatedAt = s.now()
		}
	} else {
		existing, ok := s.groups[g.ID]
		if !ok {
			return domain.ErrNotFound
		}
		g.CreatedAt = existing.CreatedAt
	}

	stored := *g
	stored.DocumentCount = 0
	s.groups[g.ID] = stored
	return nil
}

// withCount fills DocumentCount (caller must hold lock).
func (gs *groupStore) withCount(g domain.Group) domain.Group {
	g.DocumentCount = 0
	for _, ids := range gs.s.members {
		if ids[g.ID] {
			g.DocumentCount++
		}
	}
	return g
}

func (gs *groupStore) GetGroup(_ context.Context, name string) (*domain.Group, error) {
	gs.s.mu.RLock()
	defer gs.s.mu.RUnlock()

	g, ok := gs.s.groupByName(name)
	if !ok {
		return nil, domain.ErrNotFound
	}
	g = gs.withCount(g)
	return &g, nil
}

func (gs *groupStore) ListGroups(_ context.Context) ([]domain.Group, error) {
	gs.s.mu.RLock()
	defer gs.s.mu.RUnlock()

	out := make([]domain.Group, 0, len(gs.s.groups))
	for _, g := range gs.s.groups {
		out = append(out, gs.withCount(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (gs *groupStore) DeleteGroup(_ context.Context, name string) error {
	if name == domain.DefaultGroupName {
		return domain.ErrDefaultGroupProtected
	}

	s := gs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groupByName(name)
	if !ok {
		return domain.ErrNotFound
	}
	def, _ := s.groupByName(domain.DefaultGroupName)

	delete(s.groups, g.ID)
	for docID := range s.documents {
		ids := s.members[docID]
		delete(ids, g.ID)
		if len(ids) == 0 {
			s.members[docID] = map[int64]bool{def.ID: true}
		}
	}
	return nil
}

func (gs *groupStore) SetDocumentGroups(_ context.Context, documentID int64, names []string) error {
	s := gs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[documentID]; !ok {
		return domain.ErrNotFound
	}
	ids, err := s.resolveGroups(domain.NormaliseGroups(names))
	if err != nil {
		return err
	}
	s.members[documentID] = ids
	return nil
}

// ==================== Stats Store ====================

type statsStore struct{ s *Store }

var _ driven.StatsStore = (*statsStore)(nil)

func (st *statsStore) Stats(_ context.Context) (domain.Stats, error) {
	s := st.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Stats{
		Documents:  len(s.documents),
		Segments:   len(s.segments),
		Embeddings: len(s.embeddings),
		Groups:     len(s.groups),
		Queue:      s.queueStats(),
	}, nil
}

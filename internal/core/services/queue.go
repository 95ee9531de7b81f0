package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

// Ensure QueueService implements the interface.
var _ driving.QueueService = (*QueueService)(nil)

// QueueService drains pending entries through the embedding provider.
//
// Draining claims each entry with a conditional pending -> processing
// update before calling the provider, so two drains running at once
// never embed the same entry twice.
type QueueService struct {
	queueStore     driven.QueueStore
	embeddingStore driven.EmbeddingStore
	provider       driven.EmbeddingProvider
	now            func() time.Time
}

// NewQueueService creates a new queue service.
// provider is optional; without it draining returns domain.ErrEmbeddingUnavailable.
func NewQueueService(
	queueStore driven.QueueStore,
	embeddingStore driven.EmbeddingStore,
	provider driven.EmbeddingProvider,
) *QueueService {
	return &QueueService{
		queueStore:     queueStore,
		embeddingStore: embeddingStore,
		provider:       provider,
		now:            time.Now,
	}
}

// DrainBatch processes up to size pending entries in scope.
//
// Processed entries leave pending, so the window is always the front of
// the pending set. Calling with offsets 0, 1, 2 ... visits the same
// entries as slicing the original pending list at offset*size.
func (s *QueueService) DrainBatch(
	ctx context.Context, scope domain.Scope, size, offset int,
) (*domain.DrainReport, error) {
	logger.Section("Drain")
	if s.provider == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if size <= 0 {
		size = domain.DefaultBatchSize
	}
	if offset < 0 {
		offset = 0
	}

	pendingNow, err := s.queueStore.CountPending(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	window, err := s.queueStore.Pending(ctx, scope, 0, size)
	if err != nil {
		return nil, fmt.Errorf("load pending: %w", err)
	}
	logger.Debug("Batch %d: %d of %d pending entries", offset, len(window), pendingNow)

	done := offset * size
	report := &domain.DrainReport{
		Total:      done + pendingNow,
		BatchIndex: offset,
	}

	handled, err := s.drain(ctx, window, report)
	report.Completed = done + handled
	report.HasMore = pendingNow > handled
	if err != nil {
		return report, err
	}

	logger.Debug("Batch %d: %d completed, %d failed", offset, report.Succeeded(), report.Failed())
	return report, nil
}

// DrainAll processes every pending entry, oldest first, until none remain.
func (s *QueueService) DrainAll(ctx context.Context, batchSize int) (*domain.DrainReport, error) {
	logger.Section("Drain All")
	if s.provider == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if batchSize <= 0 {
		batchSize = domain.DefaultDrainAllSize
	}

	total, err := s.queueStore.CountPending(ctx, domain.Scope{})
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	report := &domain.DrainReport{Total: total}

	for {
		window, err := s.queueStore.Pending(ctx, domain.Scope{}, 0, batchSize)
		if err != nil {
			return report, fmt.Errorf("load pending: %w", err)
		}
		if len(window) == 0 {
			break
		}

		handled, err := s.drain(ctx, window, report)
		report.Completed += handled
		if err != nil {
			report.HasMore = true
			return report, err
		}
		report.BatchIndex++
		logger.Debug("Drained batch %d (%d/%d)", report.BatchIndex, report.Completed, report.Total)
	}
	return report, nil
}

// Plan returns the pending entries a batch at offset covers, read only.
func (s *QueueService) Plan(ctx context.Context, scope domain.Scope, size, offset int) ([]domain.QueueEntry, error) {
	if size <= 0 {
		size = domain.DefaultBatchSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.queueStore.Pending(ctx, scope, offset*size, size)
}

// Requeue resets failed entries in scope to pending.
func (s *QueueService) Requeue(ctx context.Context, scope domain.Scope) (int, error) {
	n, err := s.queueStore.Requeue(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("requeue: %w", err)
	}
	logger.Debug("Requeued %d failed entries", n)
	return n, nil
}

// Recover resets entries stranded in processing by a crashed drain.
func (s *QueueService) Recover(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = domain.DefaultStaleAfter
	}
	n, err := s.queueStore.Recover(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("recover: %w", err)
	}
	logger.Debug("Recovered %d stranded entries", n)
	return n, nil
}

// List returns entries with a status, oldest first. An empty status lists all.
func (s *QueueService) List(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueEntry, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown queue status %q", domain.ErrInvalidInput, status)
	}
	return s.queueStore.List(ctx, status, limit)
}

// Stats counts entries per status.
func (s *QueueService) Stats(ctx context.Context) (domain.QueueStats, error) {
	return s.queueStore.Stats(ctx)
}

// drain processes window in order, appending to report.Results.
// It returns how many entries it handled. Entries claimed by another
// drain count as handled since they have left pending.
func (s *QueueService) drain(ctx context.Context, window []domain.QueueEntry, report *domain.DrainReport) (int, error) {
	handled := 0
	for _, entry := range window {
		if err := ctx.Err(); err != nil {
			return handled, err
		}

		res, claimed, err := s.process(ctx, entry)
		if err != nil {
			return handled, err
		}
		handled++
		if claimed {
			report.Results = append(report.Results, res)
		}
	}
	return handled, nil
}

// process claims one entry, embeds its text and records the outcome.
// Provider and vanished-segment failures mark the entry failed and are
// reported in the result. Only storage failures and cancellation are
// returned as errors.
func (s *QueueService) process(ctx context.Context, entry domain.QueueEntry) (domain.DrainResult, bool, error) {
	res := domain.DrainResult{
		EntryID:    entry.ID,
		SegmentID:  entry.SegmentID,
		DocumentID: entry.DocumentID,
	}

	ok, err := s.queueStore.Transition(ctx, entry.ID, domain.QueueStatusPending, domain.QueueStatusProcessing, "")
	if err != nil {
		return res, false, fmt.Errorf("claim entry %d: %w", entry.ID, err)
	}
	if !ok {
		logger.Debug("Entry %d already claimed", entry.ID)
		return res, false, nil
	}

	embedding, err := s.provider.Embed(ctx, entry.Content)
	if err != nil {
		if ctx.Err() != nil {
			// cancelled mid-call: hand the entry back instead of failing it
			_, rerr := s.queueStore.Transition(context.WithoutCancel(ctx), entry.ID,
				domain.QueueStatusProcessing, domain.QueueStatusPending, "")
			if rerr != nil {
				return res, true, fmt.Errorf("release entry %d: %w", entry.ID, rerr)
			}
			return res, true, ctx.Err()
		}
		return s.fail(ctx, res, err)
	}

	err = s.embeddingStore.SaveEmbedding(ctx, &domain.Embedding{
		SegmentID:  entry.SegmentID,
		Vector:     embedding.Vector,
		Model:      embedding.Model,
		Dimensions: embedding.Dimensions(),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSegmentVanished) {
			err = fmt.Errorf("save embedding: %w", err)
		}
		return s.fail(ctx, res, err)
	}

	if _, err := s.queueStore.Transition(ctx, entry.ID,
		domain.QueueStatusProcessing, domain.QueueStatusCompleted, ""); err != nil {
		return res, true, fmt.Errorf("complete entry %d: %w", entry.ID, err)
	}

	res.Status = domain.QueueStatusCompleted
	res.Dimensions = embedding.Dimensions()
	return res, true, nil
}

func (s *QueueService) fail(ctx context.Context, res domain.DrainResult, cause error) (domain.DrainResult, bool, error) {
	logger.Warn("Entry %d failed: %v", res.EntryID, cause)
	if _, err := s.queueStore.Transition(ctx, res.EntryID,
		domain.QueueStatusProcessing, domain.QueueStatusFailed, cause.Error()); err != nil {
		return res, true, fmt.Errorf("fail entry %d: %w", res.EntryID, err)
	}
	res.Status = domain.QueueStatusFailed
	res.Error = cause.Error()
	return res, true, nil
}

package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// QueueService drains and maintains the embedding queue.
type QueueService interface {
	// DrainBatch processes one bounded batch of pending entries in scope.
	// Call repeatedly with increasing offsets until HasMore is false.
	DrainBatch(ctx context.Context, scope domain.Scope, size, offset int) (*domain.DrainReport, error)

	// DrainAll processes every pending entry, oldest first, batchSize at a time.
	DrainAll(ctx context.Context, batchSize int) (*domain.DrainReport, error)

	// Plan returns the pending entries a batch at offset would cover,
	// without processing anything.
	Plan(ctx context.Context, scope domain.Scope, size, offset int) ([]domain.QueueEntry, error)

	// Requeue resets failed entries in scope to pending.
	Requeue(ctx context.Context, scope domain.Scope) (int, error)

	// Recover resets processing entries untouched for longer than olderThan.
	Recover(ctx context.Context, olderThan time.Duration) (int, error)

	// List returns entries with a status, oldest first.
	List(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueEntry, error)

	// Stats counts entries per status.
	Stats(ctx context.Context) (domain.QueueStats, error)
}

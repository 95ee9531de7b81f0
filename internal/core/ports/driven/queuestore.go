package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// QueueStore persists embedding work. Entries are created by
// DocumentStore.SaveDocument.
// Pending entries are always ordered by creation time, then ID.
type QueueStore interface {
	// Pending returns pending entries in scope, oldest first.
	// A negative limit returns all of them.
	Pending(ctx context.Context, scope domain.Scope, offset, limit int) ([]domain.QueueEntry, error)

	// CountPending counts pending entries in scope.
	CountPending(ctx context.Context, scope domain.Scope) (int, error)

	// Transition moves an entry from one status to another if and only if
	// it is still in from. Moving to failed increments attempts and stores
	// errMsg. Returns false when the entry was no longer in from.
	// Illegal edges return domain.ErrIllegalTransition without touching storage.
	Transition(ctx context.Context, id int64, from, to domain.QueueStatus, errMsg string) (bool, error)

	// Requeue resets failed entries in scope to pending with attempts and
	// errors cleared. Returns the number reset.
	Requeue(ctx context.Context, scope domain.Scope) (int, error)

	// Recover resets processing entries last updated before cutoff to pending.
	Recover(ctx context.Context, cutoff time.Time) (int, error)

	// List returns entries with the given status (all when empty), oldest
	// first. A limit of zero or less returns every match.
	List(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueEntry, error)

	// Stats counts entries per status.
	Stats(ctx context.Context) (domain.QueueStats, error)
}

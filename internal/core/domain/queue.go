package domain

import (
	"fmt"
	"time"
)

// QueueStatus is the lifecycle state of a queue entry.
type QueueStatus string

// Queue entry states.
const (
	// QueueStatusPending is waiting to be claimed by a drain.
	QueueStatusPending QueueStatus = "pending"

	// QueueStatusProcessing has been claimed and is in flight.
	QueueStatusProcessing QueueStatus = "processing"

	// QueueStatusCompleted has an embedding written. Terminal.
	QueueStatusCompleted QueueStatus = "completed"

	// QueueStatusFailed recorded an error and waits for a requeue.
	QueueStatusFailed QueueStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s QueueStatus) IsValid() bool {
	switch s {
	case QueueStatusPending, QueueStatusProcessing, QueueStatusCompleted, QueueStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s QueueStatus) String() string {
	return string(s)
}

// ParseQueueStatus converts a stored string into a QueueStatus.
func ParseQueueStatus(s string) (QueueStatus, error) {
	status := QueueStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown queue status %q", ErrInvalidInput, s)
	}
	return status, nil
}

// allowedTransitions lists every legal edge of the queue state machine.
// processing -> pending exists only for recovering stranded entries.
var allowedTransitions = map[QueueStatus][]QueueStatus{
	QueueStatusPending:    {QueueStatusProcessing},
	QueueStatusProcessing: {QueueStatusCompleted, QueueStatusFailed, QueueStatusPending},
	QueueStatusFailed:     {QueueStatusPending},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to QueueStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new status.
// Completed entries never move again.
func Transition(from, to QueueStatus) (QueueStatus, error) {
	if !from.IsValid() || !to.IsValid() || !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}

// QueueEntry is one unit of embedding work for a segment.
type QueueEntry struct {
	ID         int64
	SegmentID  int64
	DocumentID int64

	// Content is a copy of the segment text taken at enqueue time.
	Content string

	Status    QueueStatus
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Advance applies a transition to the entry in memory.
// A move to failed increments attempts and records errMsg.
// A move back to pending from failed clears both.
func (e *QueueEntry) Advance(to QueueStatus, errMsg string) error {
	next, err := Transition(e.Status, to)
	if err != nil {
		return err
	}
	switch next {
	case QueueStatusFailed:
		e.Attempts++
		e.LastError = errMsg
	case QueueStatusPending:
		if e.Status == QueueStatusFailed {
			e.Attempts = 0
		}
		e.LastError = ""
	case QueueStatusCompleted:
		e.LastError = ""
	}
	e.Status = next
	e.UpdatedAt = time.Now()
	return nil
}

// Scope restricts queue and search operations to a subset of documents.
// An empty scope means everything.
type Scope struct {
	DocumentIDs []int64
	Groups      []string
}

// IsGlobal reports whether the scope has no restriction.
func (s Scope) IsGlobal() bool {
	return len(s.DocumentIDs) == 0 && len(s.Groups) == 0
}

// DrainResult is the outcome of processing one queue entry.
type DrainResult struct {
	EntryID    int64
	SegmentID  int64
	DocumentID int64
	Status     QueueStatus
	Error      string
	Dimensions int
}

// DrainReport is the progress snapshot returned by one bounded drain call.
type DrainReport struct {
	Results []DrainResult

	// Total is the number of entries matching the scope when pagination began.
	Total int

	// Completed counts entries handled across all calls so far.
	Completed int

	// BatchIndex echoes the offset the call was made with.
	BatchIndex int

	// HasMore is true when pending entries remain beyond this batch.
	HasMore bool
}

// ProgressPercent returns Completed as a percentage of Total.
func (r *DrainReport) ProgressPercent() float64 {
	if r.Total == 0 {
		return 100
	}
	pct := float64(r.Completed) / float64(r.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Succeeded counts results that reached completed.
func (r *DrainReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == QueueStatusCompleted {
			n++
		}
	}
	return n
}

// Failed counts results that ended in failed.
func (r *DrainReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == QueueStatusFailed {
			n++
		}
	}
	return n
}

// QueueStats counts queue entries per status.
type QueueStats struct {
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// Total returns the sum across all statuses.
func (s QueueStats) Total() int {
	return s.Pending + s.Processing + s.Completed + s.Failed
}

package driving

import "context"

// DuplicatePolicy decides what ingest does with a document whose title
// and file type match an existing one.
type DuplicatePolicy string

// Duplicate policies.
const (
	// DuplicateReplace replaces content and merges group memberships.
	DuplicateReplace DuplicatePolicy = "replace"

	// DuplicateSkip leaves the existing document untouched.
	DuplicateSkip DuplicatePolicy = "skip"
)

// IngestRequest carries already-extracted text into the core.
type IngestRequest struct {
	Title       string          `validate:"required,max=255"`
	FileType    string          `validate:"required,max=16,alphanum"`
	Content     string          `validate:"max=50000000"`
	Size        int64           `validate:"gte=0"`
	Groups      []string        `validate:"dive,max=64"`
	OnDuplicate DuplicatePolicy `validate:"omitempty,oneof=replace skip"`
}

// IngestResult reports what ingest stored.
type IngestResult struct {
	DocumentID   int64
	Key          string
	SegmentCount int

	// Replaced is true when an existing document's content was replaced.
	Replaced bool

	// Skipped is true when DuplicateSkip left an existing document alone.
	Skipped bool
}

// IngestService turns text into segments and queued embedding work.
type IngestService interface {
	// Ingest chunks the content and queues one entry per segment.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// IngestFile extracts text from a file on disk and ingests it.
	IngestFile(ctx context.Context, path string, groups []string, policy DuplicatePolicy) (*IngestResult, error)
}

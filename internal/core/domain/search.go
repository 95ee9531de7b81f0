package domain

// Search defaults.
const (
	// DefaultSearchLimit is used when a non-positive limit is given.
	DefaultSearchLimit = 10

	// DefaultSearchThreshold is the minimum similarity kept by default.
	DefaultSearchThreshold = 0.3
)

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero or less means DefaultSearchLimit.
	Limit int `validate:"lte=1000"`

	// Threshold drops results scoring strictly below it.
	Threshold float64 `validate:"gte=-1,lte=1"`

	// Groups restricts results to documents in at least one of these groups.
	Groups []string `validate:"dive,max=64"`
}

// DefaultSearchOptions returns sensible defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:     DefaultSearchLimit,
		Threshold: DefaultSearchThreshold,
	}
}

// SearchResult is a ranked segment with its owning document.
type SearchResult struct {
	Segment  Segment
	Document Document
	Score    float64
}

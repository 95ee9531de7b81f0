package driving

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// SearchService provides semantic search to external actors.
type SearchService interface {
	// Search embeds the query and ranks stored segments by cosine similarity.
	// A provider failure aborts the search; there are no partial results.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

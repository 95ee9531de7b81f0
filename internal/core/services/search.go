package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
	"github.com/custodia-labs/vectorlite-cli/internal/validation"
	"github.com/custodia-labs/vectorlite-cli/internal/vector"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService ranks stored segments by cosine similarity to a query.
// Scoring is a linear scan over every candidate vector.
type SearchService struct {
	embeddingStore driven.EmbeddingStore
	provider       driven.EmbeddingProvider
}

// NewSearchService creates a new search service.
// provider is optional; without it Search returns domain.ErrEmbeddingUnavailable.
func NewSearchService(embeddingStore driven.EmbeddingStore, provider driven.EmbeddingProvider) *SearchService {
	return &SearchService{
		embeddingStore: embeddingStore,
		provider:       provider,
	}
}

// Search embeds the query and returns at most opts.Limit results scoring
// at least opts.Threshold, best first. Equal scores are ordered by
// segment ID.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search")
	defer logger.Timer("search")()

	if err := validation.Struct(opts); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.provider == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	logger.Debug("Query: %q, limit: %d, threshold: %.3f, groups: %v", query, limit, opts.Threshold, opts.Groups)

	// 1. Embed the query
	embedded, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query vector: %d dimensions (%s)", embedded.Dimensions(), embedded.Model)
	if vector.IsZero(embedded.Vector) {
		logger.Warn("Query embedded to a zero vector; every candidate scores 0")
	}

	// 2. Load candidates
	candidates, err := s.embeddingStore.Candidates(ctx, opts.Groups)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	logger.Debug("Scoring %d candidates", len(candidates))

	// 3. Score and filter
	results := make([]domain.SearchResult, 0, len(candidates))
	mismatched := 0
	for _, c := range candidates {
		// Cosine scores a dimension mismatch as 0.
		if len(c.Vector) != len(embedded.Vector) {
			mismatched++
		}
		score := vector.Cosine(embedded.Vector, c.Vector)
		if score < opts.Threshold {
			continue
		}
		results = append(results, domain.SearchResult{
			Segment:  c.Segment,
			Document: c.Document,
			Score:    score,
		})
	}
	if mismatched > 0 {
		logger.Warn("%d vectors have a different dimension and score 0; re-embed after changing models", mismatched)
	}

	// 4. Rank
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Segment.ID < results[j].Segment.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}

	logger.Debug("Returning %d results", len(results))
	return results, nil
}

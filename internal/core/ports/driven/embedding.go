// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// EmbeddingProvider turns text into a vector.
// This is an optional service - when nil, draining and search are disabled.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible servers (LM Studio)
//   - Ollama
//   - Google Gemini
//
// Failures are *domain.ProviderError values that unwrap to
// ErrProviderUnauthenticated, ErrProviderUnavailable or ErrProviderBadResponse.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) (*domain.EmbeddingResult, error)
}

// EmbeddingProviderFactory builds a provider from configuration.
// A config with no provider selected yields (nil, nil).
type EmbeddingProviderFactory interface {
	Create(cfg domain.ProviderConfig) (EmbeddingProvider, error)
}

// EmbeddingConfigValidator checks a configuration by embedding a probe string.
type EmbeddingConfigValidator interface {
	Validate(ctx context.Context, cfg domain.ProviderConfig) (*domain.EmbeddingResult, error)
}

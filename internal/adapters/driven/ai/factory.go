// Package ai builds embedding providers from configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
	"github.com/custodia-labs/vectorlite-cli/internal/validation"
)

// probeTimeout bounds the test embedding used to validate a configuration.
const probeTimeout = 30 * time.Second

// probeText is embedded when validating a provider.
const probeText = "vectorlite connectivity probe"

// Ensure Factory implements the interface.
var _ driven.EmbeddingProviderFactory = (*Factory)(nil)

// Factory creates embedding providers.
type Factory struct{}

// NewFactory creates a new provider factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds the provider selected by cfg.
func (f *Factory) Create(cfg domain.ProviderConfig) (driven.EmbeddingProvider, error) {
	return CreateEmbeddingProvider(cfg)
}

// CreateEmbeddingProvider creates an embedding provider from cfg.
// Returns nil, nil when no provider is selected.
func CreateEmbeddingProvider(cfg domain.ProviderConfig) (driven.EmbeddingProvider, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	if !cfg.Provider.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, cfg.Provider)
	}
	if err := validation.Struct(cfg); err != nil {
		return nil, err
	}

	cfg = cfg.WithDefaults()
	logger.Debug("creating %s embedding provider (model %s, endpoint %s)", cfg.Provider, cfg.Model, cfg.Endpoint)

	switch cfg.Provider {
	case domain.ProviderOpenAI:
		svc, err := openai.NewEmbeddingService(openai.Config{
			Name:               string(cfg.Provider),
			APIKey:             cfg.APIKey,
			Endpoint:           cfg.Endpoint,
			Model:              cfg.Model,
			ExpectedDimensions: cfg.ExpectedDimensions,
			RateLimit:          cfg.RateLimit,
			MaxRetries:         cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.ProviderLMStudio:
		svc, err := openai.NewEmbeddingService(openai.Config{
			Name:               string(cfg.Provider),
			APIKey:             cfg.APIKey,
			KeyOptional:        true,
			Endpoint:           cfg.Endpoint,
			Model:              cfg.Model,
			ExpectedDimensions: cfg.ExpectedDimensions,
			RateLimit:          cfg.RateLimit,
			MaxRetries:         cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.ProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			Endpoint:           cfg.Endpoint,
			Model:              cfg.Model,
			ExpectedDimensions: cfg.ExpectedDimensions,
			RateLimit:          cfg.RateLimit,
			MaxRetries:         cfg.MaxRetries,
		}), nil

	case domain.ProviderGemini:
		svc, err := gemini.NewEmbeddingService(gemini.Config{
			APIKey:             cfg.APIKey,
			Endpoint:           cfg.Endpoint,
			Model:              cfg.Model,
			ExpectedDimensions: cfg.ExpectedDimensions,
			RateLimit:          cfg.RateLimit,
			MaxRetries:         cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, cfg.Provider)
	}
}

// Probe creates the provider for cfg and embeds a short test string.
func Probe(ctx context.Context, cfg domain.ProviderConfig) (*domain.EmbeddingResult, error) {
	provider, err := CreateEmbeddingProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'vectorlite settings provider' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: no provider configured. Run 'vectorlite settings provider' to fix", domain.ErrEmbeddingUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	result, err := provider.Embed(ctx, probeText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return result, nil
}

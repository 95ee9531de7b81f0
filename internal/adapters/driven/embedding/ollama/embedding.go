// Package ollama provides an embedding provider backed by a local Ollama instance.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/embedding/httpclient"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/textutil"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingService)(nil)

const providerName = string(domain.ProviderOllama)

// Default configuration values.
var (
	DefaultEndpoint = domain.DefaultsFor(domain.ProviderOllama).Endpoint
	DefaultModel    = domain.DefaultsFor(domain.ProviderOllama).Model
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// Endpoint is the embeddings URL (default: http://localhost:11434/api/embeddings).
	Endpoint string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// ExpectedDimensions rejects vectors of other lengths when > 0.
	ExpectedDimensions int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// ConnectTimeout is the dial timeout (default: 30s).
	ConnectTimeout time.Duration

	// RateLimit caps requests per second when > 0.
	RateLimit float64

	// MaxRetries bounds retries of unavailable calls.
	MaxRetries int

	// RetryDelay is the first retry backoff.
	RetryDelay time.Duration
}

// EmbeddingService generates embeddings using Ollama.
type EmbeddingService struct {
	client   *httpclient.Client
	endpoint string
	model    string
	expected int
}

// embedRequest is the Ollama API request format.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the Ollama API response format.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &EmbeddingService{
		client: httpclient.New(httpclient.Options{
			Provider:       providerName,
			Timeout:        cfg.Timeout,
			ConnectTimeout: cfg.ConnectTimeout,
			RateLimit:      cfg.RateLimit,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
		}),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		expected: cfg.ExpectedDimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) (*domain.EmbeddingResult, error) {
	clean := textutil.SanitizeForEmbedding(text)
	if clean == "" {
		return nil, fmt.Errorf("%s: %w: text is empty after sanitising", providerName, domain.ErrInvalidInput)
	}

	var resp embedResponse
	if err := s.client.PostJSON(ctx, s.endpoint, nil, embedRequest{Model: s.model, Prompt: clean}, &resp); err != nil {
		return nil, err
	}

	vec := httpclient.ToFloat32(resp.Embedding)
	if err := httpclient.CheckVector(providerName, vec, s.expected); err != nil {
		return nil, err
	}
	return &domain.EmbeddingResult{Vector: vec, Model: s.model}, nil
}

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

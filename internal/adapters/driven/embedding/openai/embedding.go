// Package openai provides an embedding provider for the OpenAI API and
// OpenAI-compatible servers such as LM Studio.
package openai

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

// Default configuration values.
var (
	DefaultEndpoint = domain.DefaultsFor(domain.ProviderOpenAI).Endpoint
	DefaultModel    = domain.DefaultsFor(domain.ProviderOpenAI).Model
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// Name labels errors and logs (default: "openai").
	Name string

	// APIKey is the Bearer token. Required unless KeyOptional is set.
	APIKey string

	// KeyOptional allows an empty APIKey, for local compatible servers.
	KeyOptional bool

	// Endpoint is the full embeddings URL (default: https://api.openai.com/v1/embeddings).
	Endpoint string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// ExpectedDimensions rejects vectors of other lengths when > 0.
	ExpectedDimensions int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// ConnectTimeout is the dial timeout (default: 30s).
	ConnectTimeout time.Duration

	// RateLimit caps requests per second when > 0.
	RateLimit float64

	// MaxRetries bounds retries of rate limited or unavailable calls.
	MaxRetries int

	// RetryDelay is the first retry backoff.
	RetryDelay time.Duration
}

// EmbeddingService generates embeddings using the OpenAI embeddings API.
type EmbeddingService struct {
	client   *httpclient.Client
	name     string
	endpoint string
	apiKey   string
	model    string
	expected int
}

// embeddingRequest is the OpenAI API request format.
type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

// embeddingResponse is the OpenAI API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Name == "" {
		cfg.Name = string(domain.ProviderOpenAI)
	}
	if cfg.APIKey == "" && !cfg.KeyOptional {
		return nil, domain.NewProviderError(cfg.Name, domain.ErrProviderUnauthenticated, 0, "API key not configured")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &EmbeddingService{
		client: httpclient.New(httpclient.Options{
			Provider:       cfg.Name,
			Timeout:        cfg.Timeout,
			ConnectTimeout: cfg.ConnectTimeout,
			RateLimit:      cfg.RateLimit,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
		}),
		name:     cfg.Name,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		expected: cfg.ExpectedDimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) (*domain.EmbeddingResult, error) {
	clean := textutil.SanitizeForEmbedding(text)
	if clean == "" {
		return nil, fmt.Errorf("%s: %w: text is empty after sanitising", s.name, domain.ErrInvalidInput)
	}

	headers := map[string]string{}
	if s.apiKey != "" {
		headers["Authorization"] = "Bearer " + s.apiKey
	}

	var resp embeddingResponse
	req := embeddingRequest{Input: clean, Model: s.model}
	if err := s.client.PostJSON(ctx, s.endpoint, headers, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, domain.NewProviderError(s.name, domain.ErrProviderBadResponse, 0, "response has no data")
	}
	vec := httpclient.ToFloat32(resp.Data[0].Embedding)
	if err := httpclient.CheckVector(s.name, vec, s.expected); err != nil {
		return nil, err
	}

	model := resp.Model
	if model == "" {
		model = s.model
	}
	return &domain.EmbeddingResult{Vector: vec, Model: model}, nil
}

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

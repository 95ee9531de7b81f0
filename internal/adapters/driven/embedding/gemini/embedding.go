// Package gemini provides an embedding provider for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/embedding/httpclient"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/textutil"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingService)(nil)

const providerName = string(domain.ProviderGemini)

// Default configuration values.
var (
	DefaultEndpoint = domain.DefaultsFor(domain.ProviderGemini).Endpoint
	DefaultModel    = domain.DefaultsFor(domain.ProviderGemini).Model
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is sent as the key query parameter (required).
	APIKey string

	// Endpoint is the embedContent URL for the model.
	Endpoint string

	// Model is reported with results (default: gemini-embedding-001).
	Model string

	// ExpectedDimensions rejects vectors of other lengths when > 0.
	ExpectedDimensions int

	Timeout        time.Duration
	ConnectTimeout time.Duration
	RateLimit      float64
	MaxRetries     int
	RetryDelay     time.Duration
}

// EmbeddingService generates embeddings using Gemini embedContent.
type EmbeddingService struct {
	client   *httpclient.Client
	url      string
	model    string
	expected int
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

// embedRequest is the Gemini API request format.
type embedRequest struct {
	Content content `json:"content"`
}

// embedResponse is the Gemini API response format.
type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewProviderError(providerName, domain.ErrProviderUnauthenticated, 0, "API key not configured")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("gemini: parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", cfg.APIKey)
	u.RawQuery = q.Encode()

	return &EmbeddingService{
		client: httpclient.New(httpclient.Options{
			Provider:       providerName,
			Timeout:        cfg.Timeout,
			ConnectTimeout: cfg.ConnectTimeout,
			RateLimit:      cfg.RateLimit,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
		}),
		url:      u.String(),
		model:    cfg.Model,
		expected: cfg.ExpectedDimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) (*domain.EmbeddingResult, error) {
	clean := textutil.SanitizeForEmbedding(text)
	if clean == "" {
		return nil, fmt.Errorf("%s: %w: text is empty after sanitising", providerName, domain.ErrInvalidInput)
	}

	req := embedRequest{Content: content{Parts: []part{{Text: clean}}}}
	var resp embedResponse
	if err := s.client.PostJSON(ctx, s.url, nil, req, &resp); err != nil {
		return nil, err
	}

	vec := httpclient.ToFloat32(resp.Embedding.Values)
	if err := httpclient.CheckVector(providerName, vec, s.expected); err != nil {
		return nil, err
	}
	return &domain.EmbeddingResult{Vector: vec, Model: s.model}, nil
}

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

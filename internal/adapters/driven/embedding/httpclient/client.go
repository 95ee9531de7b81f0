// Package httpclient is the shared JSON-over-HTTP transport used by the
// embedding provider adapters. It applies connect and request timeouts,
// rate limiting and bounded retries, and turns every failure into a
// *domain.ProviderError.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

// Default transport settings.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	DefaultRetryDelay     = 2 * time.Second
	DefaultMaxRetries     = 2
)

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	// Provider names the upstream in errors and logs.
	Provider string

	// Timeout bounds a whole request (default: 60s).
	Timeout time.Duration

	// ConnectTimeout bounds the TCP dial (default: 30s).
	ConnectTimeout time.Duration

	// RateLimit caps requests per second when > 0.
	RateLimit float64

	// MaxRetries is the number of extra attempts after a retryable failure.
	// Negative disables retries. Zero means DefaultMaxRetries.
	MaxRetries int

	// RetryDelay is the first backoff; each retry doubles it (default: 2s).
	RetryDelay time.Duration
}

// Client posts JSON to a provider and decodes JSON responses.
type Client struct {
	http       *http.Client
	limiter    *RateLimiter
	provider   string
	maxRetries int
	retryDelay time.Duration
}

// New creates a client from options, filling defaults.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	switch {
	case opts.MaxRetries == 0:
		opts.MaxRetries = DefaultMaxRetries
	case opts.MaxRetries < 0:
		opts.MaxRetries = 0
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter:    NewRateLimiter(opts.RateLimit),
		provider:   opts.Provider,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// PostJSON sends body to url and decodes a 2xx response into out.
// Rate limited and unavailable attempts are retried with backoff.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	for attempt := 0; ; attempt++ {
		err = c.post(ctx, url, headers, payload, out)
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) || attempt >= c.maxRetries || ctx.Err() != nil {
			return finalise(err)
		}

		logger.Debug("%s: attempt %d failed (%v), retrying in %s", c.provider, attempt+1, err, delay)
		select {
		case <-ctx.Done():
			return finalise(err)
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (c *Client) post(ctx context.Context, url string, headers map[string]string, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.NewProviderError(c.provider, domain.ErrProviderUnavailable, 0, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(err)
	}

	if err := c.statusError(resp, data); err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return domain.NewProviderError(c.provider, domain.ErrProviderBadResponse, resp.StatusCode,
			"decode response: "+err.Error())
	}
	return nil
}

// statusError classifies a non-2xx response.
func (c *Client) statusError(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	msg := truncate(string(body), maxErrorBody)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.NewProviderError(c.provider, domain.ErrProviderUnauthenticated, code, msg)
	case code == http.StatusTooManyRequests:
		c.limiter.Observe(resp)
		return domain.NewProviderError(c.provider, domain.ErrRateLimited, code, msg)
	case code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout:
		return domain.NewProviderError(c.provider, domain.ErrProviderUnavailable, code, msg)
	default:
		return domain.NewProviderError(c.provider, domain.ErrProviderBadResponse, code, msg)
	}
}

func (c *Client) transportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewProviderError(c.provider, domain.ErrProviderUnavailable, 0, "timeout: "+err.Error())
	}
	return domain.NewProviderError(c.provider, domain.ErrProviderUnavailable, 0, err.Error())
}

// finalise reports an exhausted rate limit as a bad response.
func finalise(err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) && errors.Is(pe.Kind, domain.ErrRateLimited) {
		return domain.NewProviderError(pe.Provider, domain.ErrProviderBadResponse, pe.StatusCode,
			"rate limited: "+pe.Message)
	}
	return err
}

// CheckVector rejects empty vectors and, when expected > 0, any other length.
func CheckVector(provider string, vec []float32, expected int) error {
	if len(vec) == 0 {
		return domain.NewProviderError(provider, domain.ErrProviderBadResponse, 0, "response has no embedding")
	}
	if expected > 0 && len(vec) != expected {
		return domain.NewProviderError(provider, domain.ErrProviderBadResponse, 0,
			fmt.Sprintf("expected %d dimensions, got %d", expected, len(vec)))
	}
	return nil
}

// ToFloat32 converts a decoded JSON vector.
func ToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}

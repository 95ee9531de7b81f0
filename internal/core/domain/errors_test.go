package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_Unwrap(t *testing.T) {
	err := NewProviderError("openai", ErrProviderUnauthenticated, 401, "bad key")
	wrapped := fmt.Errorf("embed: %w", err)

	assert.True(t, errors.Is(wrapped, ErrProviderUnauthenticated))
	assert.False(t, errors.Is(wrapped, ErrProviderBadResponse))

	var pe *ProviderError
	assert.True(t, errors.As(wrapped, &pe))
	assert.Equal(t, 401, pe.StatusCode)
	assert.Contains(t, err.Error(), "status 401")
}

func TestProviderError_NoStatus(t *testing.T) {
	err := NewProviderError("ollama", ErrProviderUnavailable, 0, "connection refused")
	assert.NotContains(t, err.Error(), "status")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderError("openai", ErrRateLimited, 429, "")))
	assert.True(t, IsRetryable(NewProviderError("openai", ErrProviderUnavailable, 0, "")))
	assert.False(t, IsRetryable(NewProviderError("openai", ErrProviderBadResponse, 500, "")))
	assert.False(t, IsRetryable(errors.New("other")))
}

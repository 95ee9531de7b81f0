package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type with no text extractor.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDefaultGroupProtected indicates an attempt to delete or rename the default group.
	ErrDefaultGroupProtected = errors.New("default group cannot be modified")

	// ErrIllegalTransition indicates a queue status change the state machine forbids.
	ErrIllegalTransition = errors.New("illegal queue transition")

	// ErrEmbeddingUnavailable indicates no embedding provider is configured.
	// Ingestion still works; draining and searching do not.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Provider Errors.

	// ErrUnknownProvider indicates a provider name outside the supported set.
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrProviderUnauthenticated indicates a missing or rejected API key.
	ErrProviderUnauthenticated = errors.New("provider unauthenticated")

	// ErrProviderUnavailable indicates a timeout or connection failure.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderBadResponse indicates a non-success status or a response without a usable vector.
	ErrProviderBadResponse = errors.New("provider bad response")

	// ErrRateLimited indicates the provider rejected the request with 429.
	// It is reported as ErrProviderBadResponse once retries are exhausted.
	ErrRateLimited = errors.New("rate limited")

	// Queue Errors.

	// ErrSegmentVanished indicates a segment was deleted while its entry was in flight.
	ErrSegmentVanished = errors.New("segment vanished")
)

// ProviderError describes a failed call to an embedding provider.
// It unwraps to one of the provider sentinels above.
type ProviderError struct {
	// Provider is the provider name, e.g. "openai".
	Provider string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Kind is the sentinel classifying the failure.
	Kind error

	// Message carries upstream detail.
	Message string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %v (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the sentinel so errors.Is matches the failure kind.
func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// NewProviderError builds a ProviderError of the given kind.
func NewProviderError(provider string, kind error, status int, message string) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Kind:       kind,
		Message:    message,
	}
}

// IsRetryable reports whether a provider failure is worth retrying:
// rate limiting and transient unavailability.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}

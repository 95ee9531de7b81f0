package driving

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// ProviderCheck reports the outcome of a live provider test.
type ProviderCheck struct {
	Provider   domain.EmbeddingProviderName
	Model      string
	Dimensions int
}

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.EmbeddingProviderName, model, endpoint, apiKey string) error

	// SetValue writes a single dotted config key.
	SetValue(key, value string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// TestProvider embeds a probe string with the configured provider.
	TestProvider(ctx context.Context) (*ProviderCheck, error)
}

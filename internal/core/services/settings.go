package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider   = "embedding.provider"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedEndpoint   = "embedding.endpoint"
	KeyEmbedAPIKey     = "embedding.api_key"
	KeyEmbedDimensions = "embedding.dimensions"
	KeyEmbedRateLimit  = "embedding.rate_limit"
	KeyEmbedMaxRetries = "embedding.max_retries"
	KeyChunkSize       = "chunking.size"
	KeyChunkOverlap    = "chunking.overlap"
	KeySearchLimit     = "search.limit"
	KeySearchThreshold = "search.threshold"
	KeyQueueBatchSize  = "queue.batch_size"
	KeyQueueStaleAfter = "queue.stale_after"
	KeyStorageDriver   = "storage.driver"
	KeyStorageDSN      = "storage.dsn"
	KeyWatchInbox      = "watch.inbox"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
)

// settingKinds lists every key SetValue accepts and how to parse it.
var settingKinds = map[string]valueKind{
	KeyEmbedProvider:   kindString,
	KeyEmbedModel:      kindString,
	KeyEmbedEndpoint:   kindString,
	KeyEmbedAPIKey:     kindString,
	KeyEmbedDimensions: kindInt,
	KeyEmbedRateLimit:  kindFloat,
	KeyEmbedMaxRetries: kindInt,
	KeyChunkSize:       kindInt,
	KeyChunkOverlap:    kindInt,
	KeySearchLimit:     kindInt,
	KeySearchThreshold: kindFloat,
	KeyQueueBatchSize:  kindInt,
	KeyQueueStaleAfter: kindDuration,
	KeyStorageDriver:   kindString,
	KeyStorageDSN:      kindString,
	KeyWatchInbox:      kindString,
}

// SettingKeys returns every settable key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingConfigValidator
}

// NewSettingsService creates a new settings service.
// validator is optional; without it TestProvider is unavailable.
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings, falling back to defaults
// for anything unset. An unknown provider name is returned as stored and
// rejected later by the provider factory.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.ProviderConfig{
			Provider:           domain.EmbeddingProviderName(s.configStore.GetString(KeyEmbedProvider)),
			Model:              s.configStore.GetString(KeyEmbedModel),
			Endpoint:           s.configStore.GetString(KeyEmbedEndpoint),
			APIKey:             s.configStore.GetString(KeyEmbedAPIKey),
			ExpectedDimensions: s.configStore.GetInt(KeyEmbedDimensions),
			RateLimit:          s.configStore.GetFloat(KeyEmbedRateLimit),
			MaxRetries:         s.getIntSet(KeyEmbedMaxRetries, defaults.Embedding.MaxRetries),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(KeyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntSet(KeyChunkOverlap, defaults.Chunking.Overlap),
		},
		Search: domain.SearchOptions{
			Limit:     s.getInt(KeySearchLimit, defaults.Search.Limit),
			Threshold: s.getFloatSet(KeySearchThreshold, defaults.Search.Threshold),
		},
		Queue: domain.QueueSettings{
			BatchSize:  s.getInt(KeyQueueBatchSize, defaults.Queue.BatchSize),
			StaleAfter: s.getDuration(KeyQueueStaleAfter, defaults.Queue.StaleAfter),
		},
		Storage: domain.StorageSettings{
			Driver: s.getDriver(defaults.Storage.Driver),
			DSN:    s.configStore.GetString(KeyStorageDSN),
		},
		WatchInbox: s.configStore.GetString(KeyWatchInbox),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedEndpoint, settings.Embedding.Endpoint},
		{KeyEmbedDimensions, settings.Embedding.ExpectedDimensions},
		{KeyEmbedRateLimit, settings.Embedding.RateLimit},
		{KeyEmbedMaxRetries, settings.Embedding.MaxRetries},
		{KeyChunkSize, settings.Chunking.Size},
		{KeyChunkOverlap, settings.Chunking.Overlap},
		{KeySearchLimit, settings.Search.Limit},
		{KeySearchThreshold, settings.Search.Threshold},
		{KeyQueueBatchSize, settings.Queue.BatchSize},
		{KeyQueueStaleAfter, settings.Queue.StaleAfter.String()},
		{KeyStorageDriver, string(settings.Storage.Driver)},
		{KeyStorageDSN, settings.Storage.DSN},
		{KeyWatchInbox, settings.WatchInbox},
	}
	// an empty key never overwrites a stored one
	if settings.Embedding.APIKey != "" {
		values = append(values, struct {
			key string
			val any
		}{KeyEmbedAPIKey, settings.Embedding.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// Empty model and endpoint fall back to the provider's defaults.
func (s *SettingsService) SetEmbeddingProvider(
	provider domain.EmbeddingProviderName, model, endpoint, apiKey string,
) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && settings.Embedding.Provider == provider {
		apiKey = settings.Embedding.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if settings.Embedding.Provider != provider {
		// dimensions of the previous model no longer apply
		settings.Embedding.ExpectedDimensions = 0
	}
	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	settings.Embedding.Endpoint = endpoint
	settings.Embedding.APIKey = apiKey
	settings.Embedding = settings.Embedding.WithDefaults()

	return s.Save(settings)
}

// SetValue parses value for key and stores it.
func (s *SettingsService) SetValue(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)",
			domain.ErrInvalidInput, key, strings.Join(SettingKeys(), ", "))
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a duration such as 10m", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	default:
		parsed = value
	}

	switch key {
	case KeyEmbedProvider:
		if p := domain.EmbeddingProviderName(value); value != "" && !p.IsValid() {
			return fmt.Errorf("%w: %q", domain.ErrUnknownProvider, value)
		}
	case KeyStorageDriver:
		if d := domain.StorageDriver(value); !d.IsValid() {
			return fmt.Errorf("%w: unknown storage driver %q", domain.ErrInvalidInput, value)
		}
	case KeySearchThreshold:
		if f := parsed.(float64); f < -1 || f > 1 {
			return fmt.Errorf("%w: %s must be between -1 and 1", domain.ErrInvalidInput, key)
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// TestProvider embeds a probe string with the configured provider.
func (s *SettingsService) TestProvider(ctx context.Context) (*driving.ProviderCheck, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	if settings.Embedding.Provider == "" {
		return nil, fmt.Errorf("%w: no provider configured", domain.ErrEmbeddingUnavailable)
	}
	if s.validator == nil {
		return nil, fmt.Errorf("%w: provider validation not configured", domain.ErrEmbeddingUnavailable)
	}

	cfg := settings.Embedding.WithDefaults()
	res, err := s.validator.Validate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	check := &driving.ProviderCheck{
		Provider:   cfg.Provider,
		Model:      res.Model,
		Dimensions: res.Dimensions(),
	}
	if check.Model == "" {
		check.Model = cfg.Model
	}
	return check, nil
}

// Helper methods for reading config with defaults.

// getInt treats zero as unset.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getIntSet honours an explicit zero.
func (s *SettingsService) getIntSet(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloatSet(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getDriver(defaultVal domain.StorageDriver) domain.StorageDriver {
	driver := domain.StorageDriver(s.configStore.GetString(KeyStorageDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}

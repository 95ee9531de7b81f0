package domain

import "time"

const unknownDescription = "Unknown"

// EmbeddingProviderName identifies an embedding service.
type EmbeddingProviderName string

// Supported embedding providers.
const (
	// ProviderOpenAI is the OpenAI cloud API.
	ProviderOpenAI EmbeddingProviderName = "openai"

	// ProviderLMStudio is a local LM Studio server speaking the OpenAI shape.
	ProviderLMStudio EmbeddingProviderName = "lmstudio"

	// ProviderOllama is a local Ollama instance.
	ProviderOllama EmbeddingProviderName = "ollama"

	// ProviderGemini is the Google Gemini API.
	ProviderGemini EmbeddingProviderName = "gemini"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProviderName) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderLMStudio, ProviderOllama, ProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProviderName) RequiresAPIKey() bool {
	return p == ProviderOpenAI || p == ProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p EmbeddingProviderName) IsLocal() bool {
	return p == ProviderOllama || p == ProviderLMStudio
}

// String returns the string representation.
func (p EmbeddingProviderName) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProviderName) Description() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI (cloud)"
	case ProviderLMStudio:
		return "LM Studio (local)"
	case ProviderOllama:
		return "Ollama (local)"
	case ProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns every supported provider.
func AllEmbeddingProviders() []EmbeddingProviderName {
	return []EmbeddingProviderName{
		ProviderOpenAI,
		ProviderLMStudio,
		ProviderOllama,
		ProviderGemini,
	}
}

// ProviderDefaults holds the built-in endpoint, model and size for a provider.
type ProviderDefaults struct {
	Endpoint   string
	Model      string
	Dimensions int
}

// DefaultsFor returns the built-in defaults for a provider.
func DefaultsFor(p EmbeddingProviderName) ProviderDefaults {
	switch p {
	case ProviderOpenAI:
		return ProviderDefaults{
			Endpoint:   "https://api.openai.com/v1/embeddings",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		}
	case ProviderLMStudio:
		return ProviderDefaults{
			Endpoint:   "http://localhost:1234/v1/embeddings",
			Model:      "text-embedding-model",
			Dimensions: 1536,
		}
	case ProviderOllama:
		return ProviderDefaults{
			Endpoint:   "http://localhost:11434/api/embeddings",
			Model:      "nomic-embed-text",
			Dimensions: 768,
		}
	case ProviderGemini:
		return ProviderDefaults{
			Endpoint:   "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent",
			Model:      "gemini-embedding-001",
			Dimensions: 3072,
		}
	default:
		return ProviderDefaults{}
	}
}

// ProviderConfig is the uniform configuration every provider adapter consumes.
type ProviderConfig struct {
	// Provider selects the adapter.
	Provider EmbeddingProviderName `validate:"required"`

	// Endpoint is the full embeddings URL.
	Endpoint string `validate:"omitempty,url"`

	// APIKey authenticates cloud providers.
	APIKey string

	// Model is the embedding model name.
	Model string

	// ExpectedDimensions rejects vectors of any other length when > 0.
	ExpectedDimensions int `validate:"gte=0"`

	// RateLimit caps requests per second when > 0.
	RateLimit float64 `validate:"gte=0"`

	// MaxRetries is how many times a rate-limited or unavailable call is retried.
	MaxRetries int `validate:"gte=0,lte=10"`
}

// WithDefaults fills empty fields from the provider's built-in defaults.
func (c ProviderConfig) WithDefaults() ProviderConfig {
	d := DefaultsFor(c.Provider)
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	return c
}

// IsConfigured returns true if the provider is set up.
func (c ProviderConfig) IsConfigured() bool {
	if !c.Provider.IsValid() {
		return false
	}
	if c.Provider.RequiresAPIKey() && c.APIKey == "" {
		return false
	}
	return true
}

// Chunking defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ChunkingSettings controls segment sizes.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// QueueSettings controls draining.
type QueueSettings struct {
	// BatchSize is the default window for bounded drains.
	BatchSize int

	// StaleAfter is how long an entry may sit in processing before recover resets it.
	StaleAfter time.Duration
}

// Queue defaults.
const (
	DefaultBatchSize    = 10
	DefaultDrainAllSize = 5
	DefaultStaleAfter   = 10 * time.Minute
)

// StorageDriver selects a storage backend.
type StorageDriver string

// Available storage backends.
const (
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d StorageDriver) IsValid() bool {
	switch d {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// StorageSettings selects and locates the store.
type StorageSettings struct {
	Driver StorageDriver

	// DSN is a data directory for sqlite or a connection string for postgres.
	DSN string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding ProviderConfig
	Chunking  ChunkingSettings
	Search    SearchOptions
	Queue     QueueSettings
	Storage   StorageSettings

	// WatchInbox is the directory the watch command ingests from.
	WatchInbox string
}

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: ProviderConfig{MaxRetries: 2},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Search: DefaultSearchOptions(),
		Queue: QueueSettings{
			BatchSize:  DefaultBatchSize,
			StaleAfter: DefaultStaleAfter,
		},
		Storage: StorageSettings{Driver: StorageSQLite},
	}
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingProviderName_IsValid(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, EmbeddingProviderName("").IsValid())
	assert.False(t, EmbeddingProviderName("cohere").IsValid())
}

func TestEmbeddingProviderName_RequiresAPIKey(t *testing.T) {
	assert.True(t, ProviderOpenAI.RequiresAPIKey())
	assert.True(t, ProviderGemini.RequiresAPIKey())
	assert.False(t, ProviderOllama.RequiresAPIKey())
	assert.False(t, ProviderLMStudio.RequiresAPIKey())
}

func TestEmbeddingProviderName_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", ProviderOllama.Description())
	assert.Equal(t, unknownDescription, EmbeddingProviderName("x").Description())
}

func TestDefaultsFor(t *testing.T) {
	tests := []struct {
		provider EmbeddingProviderName
		model    string
		dims     int
	}{
		{ProviderOpenAI, "text-embedding-3-small", 1536},
		{ProviderLMStudio, "text-embedding-model", 1536},
		{ProviderOllama, "nomic-embed-text", 768},
		{ProviderGemini, "gemini-embedding-001", 3072},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			d := DefaultsFor(tt.provider)
			assert.Equal(t, tt.model, d.Model)
			assert.Equal(t, tt.dims, d.Dimensions)
			assert.NotEmpty(t, d.Endpoint)
		})
	}

	assert.Equal(t, ProviderDefaults{}, DefaultsFor("unknown"))
}

func TestProviderConfig_WithDefaults(t *testing.T) {
	cfg := ProviderConfig{Provider: ProviderOllama, Model: "mxbai-embed-large"}.WithDefaults()
	assert.Equal(t, "http://localhost:11434/api/embeddings", cfg.Endpoint)
	assert.Equal(t, "mxbai-embed-large", cfg.Model)
}

func TestProviderConfig_IsConfigured(t *testing.T) {
	assert.False(t, ProviderConfig{}.IsConfigured())
	assert.False(t, ProviderConfig{Provider: ProviderOpenAI}.IsConfigured())
	assert.True(t, ProviderConfig{Provider: ProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.True(t, ProviderConfig{Provider: ProviderOllama}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()
	assert.Equal(t, DefaultChunkSize, s.Chunking.Size)
	assert.Equal(t, DefaultChunkOverlap, s.Chunking.Overlap)
	assert.Equal(t, DefaultSearchLimit, s.Search.Limit)
	assert.Equal(t, DefaultSearchThreshold, s.Search.Threshold)
	assert.Equal(t, StorageSQLite, s.Storage.Driver)
	assert.False(t, s.Embedding.IsConfigured())
}

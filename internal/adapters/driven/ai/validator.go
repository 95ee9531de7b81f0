package ai

import (
	"context"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.EmbeddingConfigValidator = ConfigValidator{}

// ConfigValidator checks provider settings with a live probe embedding.
type ConfigValidator struct{}

func NewConfigValidator() ConfigValidator { return ConfigValidator{} }

func (ConfigValidator) Validate(ctx context.Context, cfg domain.ProviderConfig) (*domain.EmbeddingResult, error) {
	return Probe(ctx, cfg)
}

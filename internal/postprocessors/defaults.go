package postprocessors

import (
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/config/coerce"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/postprocessors/chunker"
	"github.com/custodia-labs/vectorlite-cli/internal/postprocessors/tokencount"
)

// RegisterDefaults adds the chunker and tokencount processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("tokencount", func(map[string]any) (driven.PostProcessor, error) {
		return tokencount.New(), nil
	})
}

// DefaultPipeline chunks with settings and then estimates segment tokens.
func DefaultPipeline(settings domain.ChunkingSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline([]string{"chunker", "tokencount"}, map[string]map[string]any{
		"chunker": {"chunk_size": settings.Size, "overlap": settings.Overlap},
	})
}

// buildChunker reads chunk_size and overlap, both in characters. A
// non-positive size or negative overlap falls back to the chunker default.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if v, ok := cfg["chunk_size"]; ok {
		if size := coerce.Int(v, true); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
	}
	if v, ok := cfg["overlap"]; ok {
		if overlap := coerce.Int(v, true); overlap >= 0 {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
	}
	return chunker.New(opts...), nil
}

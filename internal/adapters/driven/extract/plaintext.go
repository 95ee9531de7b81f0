package extract

import (
	"context"
	"strings"

	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.Extractor = (*Plaintext)(nil)

// Plaintext passes text files through unchanged apart from line endings.
type Plaintext struct{}

// NewPlaintext creates a plain text extractor.
func NewPlaintext() *Plaintext {
	return &Plaintext{}
}

// FileTypes returns the extensions handled.
func (p *Plaintext) FileTypes() []string {
	return []string{"txt", "text", "log"}
}

// Extract returns the file content.
func (p *Plaintext) Extract(_ context.Context, data []byte) (string, error) {
	if err := requireText(data); err != nil {
		return "", err
	}
	return strings.TrimSpace(normaliseNewlines(string(data))), nil
}

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.Extractor = (*JSON)(nil)

// JSON validates the document and re-indents it so minified input
// still splits into lines.
type JSON struct{}

// NewJSON creates a JSON extractor.
func NewJSON() *JSON {
	return &JSON{}
}

// FileTypes returns the extensions handled.
func (j *JSON) FileTypes() []string {
	return []string{"json"}
}

// Extract returns the indented JSON text.
func (j *JSON) Extract(_ context.Context, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}
	if !json.Valid(data) {
		return "", fmt.Errorf("%w: malformed json", domain.ErrInvalidInput)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", fmt.Errorf("%w: json: %v", domain.ErrInvalidInput, err)
	}
	return buf.String(), nil
}

package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file types to extractors.
type Registry struct {
	extractors map[string]driven.Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{extractors: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default returns a registry with every built-in format registered.
func Default() *Registry {
	return NewRegistry(
		NewPlaintext(),
		NewMarkdown(),
		NewCSV(),
		NewJSON(),
		NewHTML(),
		NewDOCX(),
		NewPDF(),
		NewRTF(),
		NewEML(),
	)
}

// Register adds an extractor for each of its file types.
// A later registration for the same type wins.
func (r *Registry) Register(e driven.Extractor) {
	for _, ft := range e.FileTypes() {
		r.extractors[normaliseType(ft)] = e
	}
}

// Supports reports whether fileType has an extractor.
func (r *Registry) Supports(fileType string) bool {
	_, ok := r.extractors[normaliseType(fileType)]
	return ok
}

// FileTypes returns every registered file type, sorted.
func (r *Registry) FileTypes() []string {
	types := make([]string, 0, len(r.extractors))
	for ft := range r.extractors {
		types = append(types, ft)
	}
	sort.Strings(types)
	return types
}

// Extract runs the extractor registered for fileType.
func (r *Registry) Extract(ctx context.Context, fileType string, data []byte) (string, error) {
	e, ok := r.extractors[normaliseType(fileType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedType, fileType)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.Extract(ctx, data)
}

// Detect sniffs data and returns the registered file type it matches,
// or "" when none does. The most specific match wins, so JSON is
// reported as json rather than txt.
func (r *Registry) Detect(data []byte) string {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		ft := normaliseType(m.Extension())
		if _, ok := r.extractors[ft]; ok && ft != "" {
			return ft
		}
	}
	return ""
}

func normaliseType(ft string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ft)), ".")
}

// requireText rejects data that does not sniff as text.
func requireText(data []byte) error {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return nil
		}
	}
	return fmt.Errorf("%w: content is not text", domain.ErrUnsupportedType)
}

// normaliseNewlines strips a UTF-8 BOM and converts CRLF and CR to LF.
func normaliseNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

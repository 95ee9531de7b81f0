package driven

import "context"

// Extractor turns raw file bytes into plain text.
// Each extractor handles specific file types (e.g., "docx", "md").
type Extractor interface {
	// FileTypes returns the lowercased extensions this extractor handles.
	FileTypes() []string

	// Extract returns the text content of data.
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorRegistry selects an extractor by file type.
type ExtractorRegistry interface {
	// Extract finds an extractor for fileType and runs it.
	// Returns domain.ErrUnsupportedType when none matches.
	Extract(ctx context.Context, fileType string, data []byte) (string, error)

	// Supports reports whether fileType has an extractor.
	Supports(fileType string) bool

	// Detect sniffs content and returns a supported file type, or ""
	// when the content matches none.
	Detect(data []byte) string
}

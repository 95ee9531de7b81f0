package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.Extractor = (*Markdown)(nil)

// Markdown strips formatting syntax and keeps the readable text.
// Fenced code is kept as text; only the fences go.
type Markdown struct{}

// NewMarkdown creates a markdown extractor.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// FileTypes returns the extensions handled.
func (m *Markdown) FileTypes() []string {
	return []string{"md", "markdown"}
}

// Extract returns the markdown with syntax removed.
func (m *Markdown) Extract(_ context.Context, data []byte) (string, error) {
	if err := requireText(data); err != nil {
		return "", err
	}
	return stripMarkdown(normaliseNewlines(string(data))), nil
}

var (
	mdFence        = regexp.MustCompile("(?m)^[ \\t]*(```|~~~)[^\\n]*$")
	mdInlineCode   = regexp.MustCompile("`([^`]+)`")
	mdImages       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLinks        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeadings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis     = regexp.MustCompile(`(\*\*|__|\*)([^*_\n]+)(\*\*|__|\*)`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s?`)
	mdRule         = regexp.MustCompile(`(?m)^[ \t]*[-*_]{3,}[ \t]*$`)
	mdListMarkers  = regexp.MustCompile(`(?m)^(\s*)[-*+]\s+`)
	mdNumberedList = regexp.MustCompile(`(?m)^(\s*)\d+[.)]\s+`)
	mdHTMLComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	mdNewlines     = regexp.MustCompile(`\n{3,}`)
)

func stripMarkdown(content string) string {
	content = mdHTMLComments.ReplaceAllString(content, "")
	content = mdFence.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImages.ReplaceAllString(content, "$1")
	content = mdLinks.ReplaceAllString(content, "$1")
	content = mdHeadings.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = mdListMarkers.ReplaceAllString(content, "$1")
	content = mdNumberedList.ReplaceAllString(content, "$1")
	content = mdNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

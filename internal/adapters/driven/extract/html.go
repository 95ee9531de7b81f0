package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.Extractor = (*HTML)(nil)

// HTML extracts readable text, dropping scripts, styles and other
// non-content elements. Block elements become line breaks.
type HTML struct{}

// NewHTML creates an HTML extractor.
func NewHTML() *HTML {
	return &HTML{}
}

// FileTypes returns the extensions handled.
func (h *HTML) FileTypes() []string {
	return []string{"html", "htm", "xhtml"}
}

// skipped elements have their whole subtree discarded.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Head:     true,
	atom.Svg:      true,
	atom.Template: true,
}

// blocks start a new line when opened or closed.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Ul: true, atom.Ol: true, atom.Dd: true, atom.Dt: true,
}

var htmlSpaces = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)

// Extract returns the visible text of the document.
func (h *HTML) Extract(ctx context.Context, data []byte) (string, error) {
	if err := requireText(data); err != nil {
		return "", err
	}

	z := html.NewTokenizer(bytes.NewReader(data))
	var b strings.Builder
	depth := 0 // nesting inside skipped elements

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: html: %v", domain.ErrInvalidInput, err)
			}
			return collapseLines(b.String()), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Body {
				depth = 0 // an unclosed <head> ends here
			}
			if skipped[a] && tt == html.StartTagToken {
				depth++
				continue
			}
			if depth == 0 && blocks[a] {
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] {
				if depth > 0 {
					depth--
				}
				continue
			}
			if depth == 0 && blocks[a] {
				b.WriteByte('\n')
			}

		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

// collapseLines squeezes runs of spaces, trims each line and keeps at
// most one blank line between paragraphs.
func collapseLines(s string) string {
	s = htmlSpaces.ReplaceAllString(normaliseNewlines(s), " ")

	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(kept) > 0
			continue
		}
		if blank {
			kept = append(kept, "")
			blank = false
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

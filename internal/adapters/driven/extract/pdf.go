package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

var _ driven.Extractor = (*PDF)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not on PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const pdftotext = "pdftotext"

// CommandRunner runs an external program and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDF extracts text with poppler's pdftotext. Without the tool it falls
// back to the strings shown by text operators in uncompressed content
// streams, which covers simple generated PDFs only.
type PDF struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// NewPDF creates a PDF extractor that shells out to pdftotext.
func NewPDF() *PDF {
	return &PDF{runner: execRunner{}, lookPath: exec.LookPath}
}

// NewPDFWithRunner creates a PDF extractor that always uses runner.
func NewPDFWithRunner(runner CommandRunner) *PDF {
	return &PDF{
		runner:   runner,
		lookPath: func(name string) (string, error) { return name, nil },
	}
}

// FileTypes returns the extensions handled.
func (p *PDF) FileTypes() []string {
	return []string{"pdf"}
}

// Extract returns the document text.
func (p *PDF) Extract(ctx context.Context, data []byte) (string, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", fmt.Errorf("%w: not a PDF", domain.ErrInvalidInput)
	}

	text, err := p.runTool(ctx, data)
	if errors.Is(err, ErrPDFToolNotFound) {
		logger.Debug("pdftotext unavailable, reading text operators directly")
		text = textOperators(data)
		if text == "" {
			return "", fmt.Errorf("%w: no readable text in PDF; %s", domain.ErrInvalidInput, InstallInstructions())
		}
		return text, nil
	}
	if err != nil {
		return "", err
	}
	return normaliseNewlines(strings.TrimSpace(text)), nil
}

func (p *PDF) runTool(ctx context.Context, data []byte) (string, error) {
	if _, err := p.lookPath(pdftotext); err != nil {
		return "", ErrPDFToolNotFound
	}

	tmp, err := os.CreateTemp("", "vectorlite-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}

	out, err := p.runner.Run(ctx, pdftotext, "-enc", "UTF-8", "-layout", tmp.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("%w: pdftotext failed: %v", domain.ErrInvalidInput, err)
	}
	return string(out), nil
}

// InstallInstructions tells the user how to get pdftotext.
func InstallInstructions() string {
	return "install pdftotext (macOS: brew install poppler, Debian/Ubuntu: apt install poppler-utils)"
}

var (
	textBlock  = regexp.MustCompile(`(?s)\bBT\b(.*?)\bET\b`)
	textShow   = regexp.MustCompile(`(?s)\[((?:\\.|[^\]\\])*)\]\s*TJ|\(((?:\\.|[^)\\])*)\)\s*(?:Tj|'|")`)
	textString = regexp.MustCompile(`\(((?:\\.|[^)\\])*)\)`)
)

// textOperators collects strings drawn by Tj, TJ, ' and " inside BT/ET
// blocks. Each block becomes one line.
func textOperators(data []byte) string {
	var lines []string
	for _, block := range textBlock.FindAllSubmatch(data, -1) {
		var parts []string
		for _, m := range textShow.FindAllSubmatch(block[1], -1) {
			if m[1] != nil {
				var sb strings.Builder
				for _, s := range textString.FindAllSubmatch(m[1], -1) {
					sb.WriteString(unescapePDF(s[1]))
				}
				parts = append(parts, sb.String())
				continue
			}
			parts = append(parts, unescapePDF(m[2]))
		}
		if line := strings.Join(strings.Fields(strings.Join(parts, " ")), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// unescapePDF decodes literal string escapes and keeps printable ASCII.
func unescapePDF(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '\\' && i+1 < len(raw) {
			i++
			switch d := raw[i]; {
			case d == 'n' || d == 'r' || d == 't':
				c = ' '
			case d >= '0' && d <= '7':
				c = 0
				for n := 0; n < 3 && i < len(raw) && raw[i] >= '0' && raw[i] <= '7'; n++ {
					c = c<<3 | (raw[i] - '0')
					i++
				}
				i--
			default:
				c = d
			}
		}
		if c >= 0x20 && c <= 0x7e {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

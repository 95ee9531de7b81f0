package extract

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error

	name string
	args []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name, m.args = name, args
	return m.output, m.err
}

const simplePDF = "%PDF-1.4\n" +
	"1 0 obj << /Title (Not body text) >> endobj\n" +
	"4 0 obj << /Length 90 >> stream\n" +
	"BT /F1 12 Tf 72 720 Td (Quarterly report) Tj ET\n" +
	"BT 72 700 Td [(Reven) -40 (ue grew \\(again\\))] TJ ET\n" +
	"endstream endobj\n%%EOF"

func TestPDF_FileTypes(t *testing.T) {
	assert.Equal(t, []string{"pdf"}, NewPDF().FileTypes())
}

func TestPDF_WithRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("PDF Title\r\n\r\nThis is the content of the PDF.\n")}

	got, err := NewPDFWithRunner(runner).Extract(context.Background(), []byte(simplePDF))
	require.NoError(t, err)
	assert.Equal(t, "PDF Title\n\nThis is the content of the PDF.", got)

	assert.Equal(t, "pdftotext", runner.name)
	require.Len(t, runner.args, 5)
	assert.Equal(t, "-", runner.args[4], "text goes to stdout")
	_, statErr := os.Stat(runner.args[3])
	assert.ErrorIs(t, statErr, os.ErrNotExist, "temp file is removed")
}

func TestPDF_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext crashed")}

	_, err := NewPDFWithRunner(runner).Extract(context.Background(), []byte(simplePDF))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPDF_NotAPDF(t *testing.T) {
	_, err := NewPDFWithRunner(&mockRunner{}).Extract(context.Background(), []byte("plain text"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPDF_FallbackWithoutTool(t *testing.T) {
	p := NewPDF()
	p.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	got, err := p.Extract(context.Background(), []byte(simplePDF))
	require.NoError(t, err)
	assert.Equal(t, "Quarterly report\nRevenue grew (again)", got)

	_, err = p.Extract(context.Background(), []byte("%PDF-1.7\nstream x\x9c\x03\x00 endstream"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "poppler")
}

func TestTextOperators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single quote operator", "BT (line one) ' ET", "line one"},
		{"octal escape", `BT (caf\351 \101BC) Tj ET`, "caf ABC"},
		{"escaped newline", `BT (a\nb) Tj ET`, "a b"},
		{"outside text block", "(ignored) Tj", ""},
		{"several shows", "BT (one) Tj (two) Tj ET", "one two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textOperators([]byte(tt.input)))
		})
	}
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

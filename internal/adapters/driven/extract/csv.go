package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.Extractor = (*CSV)(nil)

// CSV flattens each record into one line of comma-separated fields.
type CSV struct {
	// Comma is the field delimiter. Defaults to ','.
	Comma rune
}

// NewCSV creates a CSV extractor.
func NewCSV() *CSV {
	return &CSV{Comma: ','}
}

// FileTypes returns the extensions handled.
func (c *CSV) FileTypes() []string {
	return []string{"csv"}
}

// Extract parses the records and joins them one per line.
// Blank fields are dropped so sparse sheets do not produce runs of commas.
func (c *CSV) Extract(ctx context.Context, data []byte) (string, error) {
	if err := requireText(data); err != nil {
		return "", err
	}

	r := csv.NewReader(strings.NewReader(normaliseNewlines(string(data))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	if c.Comma != 0 {
		r.Comma = c.Comma
	}

	var lines []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: csv: %v", domain.ErrInvalidInput, err)
		}

		fields := make([]string, 0, len(record))
		for _, f := range record {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) > 0 {
			lines = append(lines, strings.Join(fields, ", "))
		}
	}
	return strings.Join(lines, "\n"), nil
}

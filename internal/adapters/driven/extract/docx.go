package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.Extractor = (*DOCX)(nil)

// DOCX reads the body text of a Word document, followed by any
// headers and footers.
type DOCX struct{}

// NewDOCX creates a DOCX extractor.
func NewDOCX() *DOCX {
	return &DOCX{}
}

// FileTypes returns the extensions handled. A .doc that is really an
// Office Open XML archive is read like a .docx.
func (d *DOCX) FileTypes() []string {
	return []string{"docx", "doc"}
}

// oleHeader starts every legacy binary Word file.
var oleHeader = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

const docxBody = "word/document.xml"

// docxExtras are appended after the body when present.
var docxExtras = []string{
	"word/header1.xml", "word/header2.xml", "word/header3.xml",
	"word/footer1.xml", "word/footer2.xml", "word/footer3.xml",
}

// Extract returns paragraphs separated by newlines.
func (d *DOCX) Extract(ctx context.Context, data []byte) (string, error) {
	if bytes.HasPrefix(data, oleHeader) {
		return "", fmt.Errorf("%w: legacy binary Word document; save it as .docx", domain.ErrUnsupportedType)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive", domain.ErrInvalidInput)
	}

	parts := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		parts[f.Name] = f
	}

	body, ok := parts[docxBody]
	if !ok {
		return "", fmt.Errorf("%w: docx has no %s", domain.ErrInvalidInput, docxBody)
	}
	text, err := readPart(body)
	if err != nil {
		return "", err
	}

	sections := []string{text}
	for _, name := range docxExtras {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		f, ok := parts[name]
		if !ok {
			continue
		}
		extra, err := readPart(f)
		if err != nil {
			return "", err
		}
		if extra != "" {
			sections = append(sections, extra)
		}
	}
	return strings.TrimSpace(strings.Join(sections, "\n")), nil
}

func readPart(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, f.Name, err)
	}
	defer rc.Close()

	text, err := parseWordXML(rc)
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, f.Name, err)
	}
	return text, nil
}

// parseWordXML walks WordprocessingML collecting <w:t> text.
// <w:p> starts a new line. Inside a run <w:tab/> is a tab and <w:br/> a newline.
func parseWordXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText, inRun := false, false
	paragraphs := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if paragraphs > 0 {
					b.WriteByte('\n')
				}
				paragraphs++
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				if inRun {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.Extractor = (*EML)(nil)

// EML extracts the headers and body of an RFC 822 message.
// Plain text parts are preferred over HTML ones; attachments are dropped.
type EML struct {
	html *HTML
}

// NewEML creates an email extractor.
func NewEML() *EML {
	return &EML{html: NewHTML()}
}

// FileTypes returns the extensions handled.
func (e *EML) FileTypes() []string {
	return []string{"eml"}
}

var headerDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// Extract returns From, To, Date and Subject lines followed by the body.
func (e *EML) Extract(ctx context.Context, data []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: not an email message: %v", domain.ErrInvalidInput, err)
	}

	body, err := e.body(ctx, msg.Header, msg.Body)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, key := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(key)); v != "" {
			fmt.Fprintf(&out, "%s: %s\n", key, v)
		}
	}
	out.WriteString("\n")
	out.WriteString(body)
	return strings.TrimSpace(normaliseNewlines(out.String())), nil
}

func (e *EML) body(ctx context.Context, header map[string][]string, r io.Reader) (string, error) {
	get := func(k string) string {
		if v := header[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	mediaType, params, err := mime.ParseMediaType(get("Content-Type"))
	if err != nil {
		mediaType, params = "text/plain", nil
	}

	r = decodeTransfer(get("Content-Transfer-Encoding"), r)

	if strings.HasPrefix(mediaType, "multipart/") {
		return e.multipart(ctx, r, params["boundary"])
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", domain.ErrInvalidInput, err)
	}
	text, err := decodeCharset(params["charset"], raw)
	if err != nil {
		return "", err
	}

	switch mediaType {
	case "text/html":
		return e.html.Extract(ctx, []byte(text))
	case "text/plain", "":
		return text, nil
	default:
		return "", nil
	}
}

func (e *EML) multipart(ctx context.Context, r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, html []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF ends the message; a malformed tail keeps what was read
			break
		}
		if disposition, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disposition == "attachment" {
			part.Close()
			continue
		}

		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		text, err := e.body(ctx, part.Header, part)
		part.Close()
		if err != nil || text == "" {
			continue
		}

		if mediaType == "text/html" {
			html = append(html, text)
		} else {
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n\n"), nil
	}
	return strings.Join(html, "\n\n"), nil
}

// decodeTransfer undoes quoted-printable and base64 transfer encodings.
// multipart.Reader already decodes quoted-printable parts and removes the header.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, &lineStripper{r: r})
	default:
		return r
	}
}

// lineStripper drops CR and LF so base64 bodies wrapped at 76 columns decode.
type lineStripper struct {
	r io.Reader
}

func (l *lineStripper) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	kept := 0
	for _, b := range p[:n] {
		if b != '\r' && b != '\n' {
			p[kept] = b
			kept++
		}
	}
	return kept, err
}

func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := headerDecoder.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func decodeCharset(charset string, raw []byte) (string, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return string(raw), nil
	}
	r, err := charsetReader(charset, bytes.NewReader(raw))
	if err != nil {
		return string(raw), nil //nolint:nilerr // unknown charsets fall back to the raw bytes
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: decoding %s body: %v", domain.ErrInvalidInput, charset, err)
	}
	return string(decoded), nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

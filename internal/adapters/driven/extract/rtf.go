package extract

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
)

var _ driven.Extractor = (*RTF)(nil)

// RTF strips control words and groups, keeping document text.
// Hex escapes are decoded as Windows-1252 and \u escapes as Unicode.
type RTF struct{}

// NewRTF creates an RTF extractor.
func NewRTF() *RTF {
	return &RTF{}
}

// FileTypes returns the extensions handled.
func (r *RTF) FileTypes() []string {
	return []string{"rtf"}
}

// rtfDestinations are groups whose content is never text.
var rtfDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "themedata": true, "datastore": true,
	"listtable": true, "listoverridetable": true, "rsidtbl": true,
	"generator": true, "xmlnstbl": true, "latentstyles": true,
	"filetbl": true, "revtbl": true, "colorschememapping": true,
}

// rtfWords maps control words to the text they stand for.
var rtfWords = map[string]string{
	"par": "\n", "line": "\n", "sect": "\n", "page": "\n", "row": "\n",
	"tab": "\t", "cell": "\t",
	"emdash": "\u2014", "endash": "\u2013", "bullet": "\u2022",
	"lquote": "\u2018", "rquote": "\u2019",
	"ldblquote": "\u201c", "rdblquote": "\u201d",
	"emspace": " ", "enspace": " ", "qmspace": " ",
}

type rtfGroup struct {
	skip bool
	uc   int // characters to skip after a \u escape
}

// Extract returns the plain text of the document.
func (r *RTF) Extract(_ context.Context, data []byte) (string, error) {
	data = bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(data, []byte(`{\rtf`)) {
		return "", fmt.Errorf("%w: not an rtf document", domain.ErrInvalidInput)
	}

	var out strings.Builder
	stack := []rtfGroup{{uc: 1}}
	pendingSkip := 0 // fallback characters left to drop after \u

	cur := func() *rtfGroup { return &stack[len(stack)-1] }
	emit := func(s string) {
		if pendingSkip > 0 {
			pendingSkip--
			return
		}
		if !cur().skip {
			out.WriteString(s)
		}
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch c {
		case '{':
			stack = append(stack, *cur())
			pendingSkip = 0
		case '}':
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			pendingSkip = 0
		case '\r', '\n':
			// raw line breaks carry no meaning
		case '\\':
			i = r.control(data, i, cur(), &out, &pendingSkip, emit)
		default:
			emit(string(charmap.Windows1252.DecodeByte(c)))
		}
	}
	return collapseLines(out.String()), nil
}

// control consumes one control word or symbol starting at data[i] == '\\'
// and returns the index of its last byte.
func (r *RTF) control(data []byte, i int, g *rtfGroup, out *strings.Builder, pendingSkip *int, emit func(string)) int {
	if i+1 >= len(data) {
		return i
	}
	next := data[i+1]

	switch {
	case next == '\\' || next == '{' || next == '}':
		emit(string(next))
		return i + 1
	case next == '~':
		emit(" ")
		return i + 1
	case next == '_':
		emit("-")
		return i + 1
	case next == '-':
		return i + 1
	case next == '*':
		g.skip = true
		return i + 1
	case next == '\n' || next == '\r':
		emit("\n")
		return i + 1
	case next == '\'':
		if i+3 < len(data) {
			if v, err := strconv.ParseUint(string(data[i+2:i+4]), 16, 8); err == nil {
				emit(string(charmap.Windows1252.DecodeByte(byte(v))))
			}
		}
		return i + 3
	case !isASCIILetter(next):
		return i + 1
	}

	// control word: letters, optional signed number, optional space delimiter
	j := i + 1
	for j < len(data) && isASCIILetter(data[j]) {
		j++
	}
	word := string(data[i+1 : j])

	numStart := j
	if j < len(data) && data[j] == '-' {
		j++
	}
	for j < len(data) && data[j] >= '0' && data[j] <= '9' {
		j++
	}
	param, hasParam := 0, false
	if j > numStart {
		if v, err := strconv.Atoi(string(data[numStart:j])); err == nil {
			param, hasParam = v, true
		}
	}
	if j < len(data) && data[j] == ' ' {
		j++
	}

	switch {
	case rtfDestinations[word]:
		g.skip = true
	case word == "uc" && hasParam:
		g.uc = param
	case word == "u" && hasParam:
		if param < 0 {
			param += 65536
		}
		if !g.skip && *pendingSkip == 0 {
			out.WriteRune(rune(param))
		}
		*pendingSkip = g.uc
	default:
		if s, ok := rtfWords[word]; ok {
			emit(s)
		}
	}
	return j - 1
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

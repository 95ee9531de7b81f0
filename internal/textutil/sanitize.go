package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pictographs covers emoji, symbols and pictographs, transport and map
// symbols, and miscellaneous symbols. Some providers reject these.
var pictographs = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1},
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1},
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1},
	},
}

// SanitizeForEmbedding coerces text to valid UTF-8, strips pictographs,
// normalises to NFC and trims surrounding whitespace. Lossy.
func SanitizeForEmbedding(text string) string {
	// Transformers carry state, so each call builds its own chain.
	t := transform.Chain(
		runes.ReplaceIllFormed(),
		runes.Remove(runes.In(pictographs)),
		norm.NFC,
	)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = strings.ToValidUTF8(text, "�")
	}
	return strings.TrimSpace(out)
}

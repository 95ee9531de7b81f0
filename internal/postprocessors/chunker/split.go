package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// paragraphBreak matches a blank line, possibly holding whitespace.
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

const (
	paragraphSep = "\n\n"
	sentenceSep  = " "
)

// Split breaks text into ordered segments of at most maxSize characters,
// seeding each segment after the first with a sentence-aligned tail of
// the previous one. Blank input yields no segments.
//
// maxSize below 1 falls back to DefaultChunkSize. An overlap that is
// negative or not smaller than maxSize is clamped like New does.
func Split(text string, maxSize, overlap int) []string {
	maxSize, overlap = normalise(maxSize, overlap)

	var chunks []string
	current := ""

	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if runeLen(para) > maxSize {
			for _, sentence := range splitSentences(para) {
				current = accumulate(&chunks, current, sentence, sentenceSep, maxSize, overlap)
			}
			continue
		}

		current = accumulate(&chunks, current, para, paragraphSep, maxSize, overlap)
	}

	if last := strings.TrimSpace(current); last != "" {
		chunks = append(chunks, last)
	}

	return enforceLimit(chunks, maxSize)
}

func normalise(maxSize, overlap int) (int, int) {
	if maxSize < 1 {
		maxSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize / 4
	}
	return maxSize, overlap
}

// accumulate appends unit to current, closing current into chunks first
// when the result would exceed maxSize.
func accumulate(chunks *[]string, current, unit, sep string, maxSize, overlap int) string {
	if current == "" {
		return unit
	}
	if runeLen(current)+runeLen(sep)+runeLen(unit) <= maxSize {
		return current + sep + unit
	}

	closed := strings.TrimSpace(current)
	*chunks = append(*chunks, closed)

	seed := overlapTail(closed, overlap)
	if seed == "" || runeLen(seed)+runeLen(paragraphSep)+runeLen(unit) > maxSize {
		return unit
	}
	return seed + paragraphSep + unit
}

// overlapTail returns the last overlap characters of text. When a sentence
// boundary falls past the middle of that tail, the tail starts after it.
func overlapTail(text string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	r := []rune(text)
	if len(r) <= overlap {
		return strings.TrimSpace(text)
	}

	tail := r[len(r)-overlap:]
	if i := lastSentenceEnd(tail); i >= 0 && float64(i) > float64(overlap)*0.5 {
		tail = tail[i+1:]
	}
	return strings.TrimSpace(string(tail))
}

// lastSentenceEnd returns the index of the last terminator followed by
// whitespace, or -1.
func lastSentenceEnd(r []rune) int {
	for i := len(r) - 2; i >= 0; i-- {
		if isTerminator(r[i]) && unicode.IsSpace(r[i+1]) {
			return i
		}
	}
	return -1
}

// splitSentences splits after '.', '!' or '?' followed by whitespace.
func splitSentences(para string) []string {
	var out []string
	r := []rune(para)
	start := 0
	for i := 0; i < len(r)-1; i++ {
		if !isTerminator(r[i]) || !unicode.IsSpace(r[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(r[start : i+1])); s != "" {
			out = append(out, s)
		}
		j := i + 1
		for j < len(r) && unicode.IsSpace(r[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(r) {
		if s := strings.TrimSpace(string(r[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// enforceLimit re-splits any chunk over maxSize on word boundaries.
// A single word longer than maxSize is cut into maxSize pieces.
func enforceLimit(chunks []string, maxSize int) []string {
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if runeLen(chunk) <= maxSize {
			out = append(out, chunk)
			continue
		}

		current := ""
		for _, word := range strings.Fields(chunk) {
			for runeLen(word) > maxSize {
				if current != "" {
					out = append(out, current)
					current = ""
				}
				r := []rune(word)
				out = append(out, string(r[:maxSize]))
				word = string(r[maxSize:])
			}
			if word == "" {
				continue
			}
			switch {
			case current == "":
				current = word
			case runeLen(current)+1+runeLen(word) > maxSize:
				out = append(out, current)
				current = word
			default:
				current += " " + word
			}
		}
		if current != "" {
			out = append(out, current)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

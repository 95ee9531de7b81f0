package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(100))
		assert.Equal(t, 500, p.ChunkSize())
		assert.Equal(t, 100, p.Overlap())
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		assert.Equal(t, 25, p.Overlap())
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "chunker", New().Name())
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("empty content produces no segments", func(t *testing.T) {
		segs, err := New().Process(ctx, &domain.Document{ID: 1}, nil)
		require.NoError(t, err)
		assert.Empty(t, segs)
	})

	t.Run("segments are indexed in order", func(t *testing.T) {
		doc := &domain.Document{
			ID:      7,
			Content: strings.Repeat("Paragraph text here.\n\n", 20),
		}
		segs, err := New(WithChunkSize(100), WithOverlap(0)).Process(ctx, doc, nil)
		require.NoError(t, err)
		require.Greater(t, len(segs), 1)

		for i, s := range segs {
			assert.Equal(t, i, s.Index)
			assert.Equal(t, int64(7), s.DocumentID)
			assert.LessOrEqual(t, utf8.RuneCountInString(s.Content), 100)
		}
	})
}

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, Split("", 100, 10))
	assert.Empty(t, Split("  \n\n \t\n", 100, 10))
}

func TestSplit_SingleParagraph(t *testing.T) {
	chunks := Split("  Hello world.  ", 100, 10)
	assert.Equal(t, []string{"Hello world."}, chunks)
}

func TestSplit_ParagraphsJoinedUntilFull(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph.\n   \nThird paragraph."
	chunks := Split(text, 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.\n\nThird paragraph.", chunks[0])
}

func TestSplit_RepeatedSentences(t *testing.T) {
	text := strings.Repeat("A. B. C. ", 200)[:1500]

	chunks := Split(text, 1000, 200)

	require.Len(t, chunks, 2)
	assert.LessOrEqual(t, len(chunks[0]), 1000)

	idx := strings.Index(chunks[1], "\n\n")
	require.Positive(t, idx)
	seed := chunks[1][:idx]
	assert.LessOrEqual(t, len(seed), 200)
	assert.True(t, strings.HasSuffix(chunks[0], seed), "second chunk should begin with a tail of the first")
	assert.True(t, strings.HasSuffix(seed, "."), "overlap should be sentence aligned")
}

func TestSplit_NeverExceedsMax(t *testing.T) {
	inputs := map[string]string{
		"long token":     strings.Repeat("x", 5000),
		"many sentences": strings.Repeat("This is a sentence! Is it? Yes. ", 300),
		"mixed":          strings.Repeat("word ", 50) + "\n\n" + strings.Repeat("y", 333) + "\n\n" + "end.",
		"unicode":        strings.Repeat("日本語のテキスト。", 200),
		"no spaces dots": strings.Repeat("a.b.c.", 400),
	}
	sizes := []int{1, 7, 50, 100, 1000}

	for name, text := range inputs {
		for _, size := range sizes {
			chunks := Split(text, size, size/2)
			require.NotEmpty(t, chunks, name)
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), size, "%s size %d", name, size)
				assert.NotEmpty(t, c)
			}
		}
	}
}

func TestSplit_ZeroOverlapPreservesWords(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon!\n\nZeta eta theta? Iota kappa lambda.\n\n" +
		strings.Repeat("Mu nu xi omicron pi. ", 40)

	chunks := Split(text, 80, 0)

	require.Greater(t, len(chunks), 1)
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}

// numberedText builds paragraphs of short sentences whose words are all
// distinct, so a chunk can only start with its predecessor's tail when
// that tail was carried over as overlap.
func numberedText() string {
	terminators := ".!?"
	n := 0
	paras := make([]string, 0, 12)
	for p := range 12 {
		sentences := make([]string, 0, p%6+1)
		for s := range p%6 + 1 {
			words := make([]string, 0, 9)
			for range (p+s)%7 + 3 {
				n++
				words = append(words, fmt.Sprintf("w%d", n))
			}
			sentences = append(sentences, strings.Join(words, " ")+string(terminators[(p+s)%3]))
		}
		paras = append(paras, strings.Join(sentences, " "))
	}
	return strings.Join(paras, "\n\n")
}

func TestSplit_OverlapStrippedReconstructsInput(t *testing.T) {
	text := numberedText()

	for _, tc := range []struct{ size, overlap int }{{120, 40}, {200, 60}, {80, 30}} {
		chunks := Split(text, tc.size, tc.overlap)
		require.Greater(t, len(chunks), 1)

		body := []string{chunks[0]}
		seeded := 0
		for i := 1; i < len(chunks); i++ {
			chunk := chunks[i]
			if seed := overlapTail(chunks[i-1], tc.overlap); seed != "" {
				if rest, ok := strings.CutPrefix(chunk, seed+paragraphSep); ok {
					chunk = rest
					seeded++
				}
			}
			body = append(body, chunk)
		}

		assert.Positive(t, seeded, "size %d overlap %d", tc.size, tc.overlap)
		assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(body, " ")),
			"size %d overlap %d", tc.size, tc.overlap)
	}
}

func TestSplit_ZeroOverlapSharesNoTail(t *testing.T) {
	text := strings.Repeat("One two three four five. ", 40)
	chunks := Split(text, 60, 0)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		assert.False(t, strings.Contains(chunks[i], "\n\n"), "chunk %d carries an overlap seed", i)
	}
}

func TestSplit_OverlapClamped(t *testing.T) {
	text := strings.Repeat("Sentence number one. ", 30)
	assert.NotPanics(t, func() {
		chunks := Split(text, 50, 500)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 50)
		}
	})
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two!  Three? Four")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, got)

	assert.Equal(t, []string{"a.b.c"}, splitSentences("a.b.c"))
}

func TestOverlapTail(t *testing.T) {
	t.Run("zero overlap", func(t *testing.T) {
		assert.Empty(t, overlapTail("Some text. More text.", 0))
	})

	t.Run("short text returned whole", func(t *testing.T) {
		assert.Equal(t, "tiny", overlapTail("tiny", 10))
	})

	t.Run("starts after late sentence boundary", func(t *testing.T) {
		text := "Filler words go here. The quick brown fox. End"
		assert.Equal(t, "End", overlapTail(text, 20))
	})

	t.Run("exclamation and question marks end sentences", func(t *testing.T) {
		text := "Filler words go here! Wow what a day? End"
		assert.Equal(t, "End", overlapTail(text, 20))
	})

	t.Run("early boundary ignored", func(t *testing.T) {
		text := "abc. defghijklmnopqrstuvwxyz"
		assert.Equal(t, "c. defghijklmnopqrstuvwxyz", overlapTail(text, 26))
	})
}

package textutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text     string
		expected int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"abcdefgh", 2},
		{"héllo", 2},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateTokens(tt.text))
		})
	}
}

func TestSanitizeForEmbedding(t *testing.T) {
	t.Run("strips emoji and symbols", func(t *testing.T) {
		assert.Equal(t, "hello world", SanitizeForEmbedding("hello 😀world🚀"))
		assert.Equal(t, "sunny", SanitizeForEmbedding("☀sunny"))
		assert.Equal(t, "map", SanitizeForEmbedding("🗺map"))
	})

	t.Run("keeps ordinary unicode", func(t *testing.T) {
		assert.Equal(t, "café naïve 日本", SanitizeForEmbedding("café naïve 日本"))
	})

	t.Run("repairs invalid utf-8", func(t *testing.T) {
		out := SanitizeForEmbedding("ab\xffcd")
		assert.True(t, utf8.ValidString(out))
		assert.Contains(t, out, "ab")
		assert.Contains(t, out, "cd")
	})

	t.Run("trims whitespace", func(t *testing.T) {
		assert.Equal(t, "x", SanitizeForEmbedding("  x \n"))
	})

	t.Run("empty stays empty", func(t *testing.T) {
		assert.Equal(t, "", SanitizeForEmbedding("🎉"))
	})
}

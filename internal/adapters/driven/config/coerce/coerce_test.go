package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "ollama", String("ollama", true))
	assert.Empty(t, String(42, true))
	assert.Empty(t, String("stale", false))
}

func TestInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{768, 768},
		{int64(1536), 1536},
		{int32(12), 12},
		{float64(3.9), 3},
		{" 500 ", 500},
		{"lots", 0},
		{true, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Int(tt.in, true), "%#v", tt.in)
	}
	assert.Zero(t, Int(5, false))
}

func TestFloat(t *testing.T) {
	assert.InDelta(t, 0.35, Float(0.35, true), 1e-9)
	assert.InDelta(t, 0.5, Float(float32(0.5), true), 1e-9)
	assert.InDelta(t, 2.0, Float(int64(2), true), 1e-9)
	assert.InDelta(t, 7.0, Float(7, true), 1e-9)
	assert.InDelta(t, 0.25, Float("0.25", true), 1e-9)
	assert.Zero(t, Float("x", true))
	assert.Zero(t, Float(1.0, false))
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(true, true))
	assert.True(t, Bool("true", true))
	assert.True(t, Bool(" 1 ", true))
	assert.False(t, Bool("nope", true))
	assert.False(t, Bool(1, true))
	assert.False(t, Bool(true, false))
}

func TestStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, StringSlice([]string{"a", "b"}, true))
	assert.Equal(t, []string{"work", "notes"}, StringSlice([]any{"work", 3, "notes"}, true))
	assert.Equal(t, []string{"work", "notes"}, StringSlice(" work, ,notes ", true))
	assert.Nil(t, StringSlice("  ", true))
	assert.Nil(t, StringSlice(9, true))
	assert.Nil(t, StringSlice([]string{"a"}, false))
}

package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := []float32{0, 1.5, -2.25, math.MaxFloat32, math.SmallestNonzeroFloat32}
	out, err := Decode(Encode(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Len(t, Encode(in), len(in)*4)
}

func TestEncode_Empty(t *testing.T) {
	assert.Nil(t, Encode(nil))
	out, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecode_BadLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not multiple of 4")
}

func TestCosine(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}

	t.Run("self similarity is one", func(t *testing.T) {
		assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-12)
	})

	t.Run("orthogonal is zero", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-12)
	})

	t.Run("opposite is minus one", func(t *testing.T) {
		assert.InDelta(t, -1.0, Cosine([]float32{1, 1}, []float32{-1, -1}), 1e-9)
	})

	t.Run("zero vector scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine(a, []float32{0, 0, 0}))
		assert.Equal(t, 0.0, Cosine([]float32{0, 0, 0}, a))
	})

	t.Run("dimension mismatch scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine(a, []float32{1, 2}))
	})

	t.Run("empty scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine(nil, nil))
	})
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero([]float32{0, 0}))
	assert.True(t, IsZero(nil))
	assert.False(t, IsZero([]float32{0, 0.1}))
}

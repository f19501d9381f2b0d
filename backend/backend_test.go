package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"quantized", "lz4", "zstd"} {
		b, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, b.Name())
	}

	_, ok := ByName("gzip")
	assert.False(t, ok)
	_, ok = ByName("")
	assert.False(t, ok)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "quantized", Default().Name())
}

func TestShapeValidate(t *testing.T) {
	tests := []struct {
		shape Shape
		err   error
	}{
		{Shape{4, 4, 4}, nil},
		{Shape{16, 16, 1}, nil},
		{Shape{1, 16, 16}, nil},
		{Shape{2, 1, 2}, nil},
		{Shape{16, 1, 1}, ErrUnsupportedRank},
		{Shape{1, 16, 1}, ErrUnsupportedRank},
		{Shape{1, 1, 16}, ErrUnsupportedRank},
		{Shape{1, 1, 1}, ErrUnsupportedRank},
		{Shape{0, 4, 4}, ErrShapeMismatch},
		{Shape{4, -1, 4}, ErrShapeMismatch},
	}
	for _, tt := range tests {
		err := tt.shape.validate()
		if tt.err == nil {
			assert.NoError(t, err, "%+v", tt.shape)
		} else {
			assert.ErrorIs(t, err, tt.err, "%+v", tt.shape)
		}
	}
}

func TestShapeCount(t *testing.T) {
	assert.Equal(t, 64, Shape{4, 4, 4}.Count())
	assert.Equal(t, 12, Shape{3, 4, 1}.Count())
}

package persistence

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	mapping := []MappingEntry{
		{VertexID: 42, Value: 3.5},
		{VertexID: 7, Value: -1.25},
		{VertexID: 99, Value: 0.0},
	}
	constraints := []Constraint{
		{VertexID: 7, Value: -1.25, VertexType: 0},
		{VertexID: 42, Value: 3.5, VertexType: 1},
	}

	var buf bytes.Buffer
	n, err := Write(&buf, mapping, constraints)
	require.NoError(t, err)
	assert.Equal(t, 4+3*12+4+2*16, n)
	assert.Equal(t, n, buf.Len())

	ix, nr, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, n, nr)

	assert.Equal(t, []MappingEntry{
		{VertexID: 7, Value: -1.25},
		{VertexID: 42, Value: 3.5},
		{VertexID: 99, Value: 0.0},
	}, ix.ByVertex)
	assert.Equal(t, []MappingEntry{
		{VertexID: 7, Value: -1.25},
		{VertexID: 99, Value: 0.0},
		{VertexID: 42, Value: 3.5},
	}, ix.ByValue)

	assert.Equal(t, constraints, ix.Constraints)
	assert.True(t, ix.HasConstraints())
	assert.Equal(t, -1.25, ix.Min)
	assert.Equal(t, 3.5, ix.Max)
}

func TestReadStableTies(t *testing.T) {
	// Equal values must keep their stored order in the value-sorted view.
	mapping := []MappingEntry{
		{VertexID: 5, Value: 1.0},
		{VertexID: 2, Value: 1.0},
		{VertexID: 9, Value: 1.0},
	}

	var buf bytes.Buffer
	_, err := Write(&buf, mapping, nil)
	require.NoError(t, err)

	ix, _, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []MappingEntry{
		{VertexID: 5, Value: 1.0},
		{VertexID: 2, Value: 1.0},
		{VertexID: 9, Value: 1.0},
	}, ix.ByValue)
	assert.Equal(t, []MappingEntry{
		{VertexID: 2, Value: 1.0},
		{VertexID: 5, Value: 1.0},
		{VertexID: 9, Value: 1.0},
	}, ix.ByVertex)
}

func TestReadNoConstraints(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, []MappingEntry{{VertexID: 1, Value: 2.0}}, nil)
	require.NoError(t, err)

	ix, _, err := Read(&buf)
	require.NoError(t, err)
	assert.False(t, ix.HasConstraints())
	assert.Empty(t, ix.Constraints)
	assert.True(t, math.IsNaN(ix.Min))
	assert.True(t, math.IsNaN(ix.Max))
}

func TestReadEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	ix, nr, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8, nr)
	assert.Empty(t, ix.ByVertex)
	assert.Empty(t, ix.ByValue)
	assert.False(t, ix.HasConstraints())
}

func TestReadSingleConstraintMinMax(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, nil, []Constraint{{VertexID: 3, Value: -7.5, VertexType: 2}})
	require.NoError(t, err)

	ix, _, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, -7.5, ix.Min)
	assert.Equal(t, -7.5, ix.Max)
}

func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf,
		[]MappingEntry{{VertexID: 1, Value: 2.0}, {VertexID: 2, Value: 4.0}},
		[]Constraint{{VertexID: 1, Value: 2.0, VertexType: 0}})
	require.NoError(t, err)
	full := buf.Bytes()

	for cut := 0; cut < len(full); cut++ {
		_, _, err := Read(bytes.NewReader(full[:cut]))
		assert.ErrorIs(t, err, ErrTruncated, "cut=%d", cut)
	}
}

func TestReadNegativeCounts(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	assert.ErrorIs(t, err, ErrCorrupt)

	// Valid empty mapping, negative constraint count.
	_, _, err = Read(bytes.NewReader([]byte{0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}))
	assert.ErrorIs(t, err, ErrCorrupt)
}

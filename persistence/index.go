package persistence

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/hupe1980/topocodec/internal/binio"
)

var (
	// ErrTruncated is returned when the stream ends inside an index block.
	ErrTruncated = errors.New("truncated persistence index")
	// ErrCorrupt is returned when a stored count is not decodable.
	ErrCorrupt = errors.New("corrupt persistence index header")
)

// MappingEntry associates one segment seed vertex with its exact scalar value.
type MappingEntry struct {
	VertexID int32
	Value    float64
}

// Constraint pins an exact scalar value to a vertex, typically a topological
// extremum the reconstruction must reproduce verbatim.
type Constraint struct {
	VertexID   int32
	Value      float64
	VertexType int32
}

// Index is the decoded persistence index. ByVertex and ByValue are two
// sorted snapshots of the same mapping set, built once on read and never
// mutated afterwards; downstream reconstruction needs both the
// vertex-keyed and the value-keyed order.
type Index struct {
	ByVertex    []MappingEntry
	ByValue     []MappingEntry
	Constraints []Constraint

	// Min and Max span the constraint values. Both are NaN when the index
	// holds no constraints; see HasConstraints.
	Min float64
	Max float64
}

// HasConstraints reports whether Min and Max are meaningful.
func (ix *Index) HasConstraints() bool {
	return len(ix.Constraints) > 0
}

// Write serializes the mapping table and constraint list to w in caller
// order and returns the number of bytes written.
func Write(w io.Writer, mapping []MappingEntry, constraints []Constraint) (int, error) {
	total := 0

	n, err := binio.WriteInt32(w, int32(len(mapping)))
	total += n
	if err != nil {
		return total, err
	}
	for _, m := range mapping {
		if n, err = binio.WriteInt32(w, m.VertexID); err != nil {
			return total + n, err
		}
		total += n
		if n, err = binio.WriteFloat64(w, m.Value); err != nil {
			return total + n, err
		}
		total += n
	}

	n, err = binio.WriteInt32(w, int32(len(constraints)))
	total += n
	if err != nil {
		return total, err
	}
	for _, c := range constraints {
		if n, err = binio.WriteInt32(w, c.VertexID); err != nil {
			return total + n, err
		}
		total += n
		if n, err = binio.WriteFloat64(w, c.Value); err != nil {
			return total + n, err
		}
		total += n
		if n, err = binio.WriteInt32(w, c.VertexType); err != nil {
			return total + n, err
		}
		total += n
	}
	return total, nil
}

// Read deserializes an index block written by Write. Min/Max are tracked
// incrementally while the constraints stream in; with zero constraints both
// come back NaN. Returns the index and the number of bytes consumed.
func Read(r io.Reader) (*Index, int, error) {
	total := 0

	mappingSize, err := binio.ReadInt32(r)
	total += binio.Int32Size
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading mapping count: %v", ErrTruncated, err)
	}
	if mappingSize < 0 {
		return nil, total, fmt.Errorf("%w: negative mapping count %d", ErrCorrupt, mappingSize)
	}

	byVertex := make([]MappingEntry, 0, mappingSize)
	for i := int32(0); i < mappingSize; i++ {
		var m MappingEntry
		if m.VertexID, err = binio.ReadInt32(r); err != nil {
			return nil, total, fmt.Errorf("%w: mapping entry %d after %d bytes: %v", ErrTruncated, i, total, err)
		}
		total += binio.Int32Size
		if m.Value, err = binio.ReadFloat64(r); err != nil {
			return nil, total, fmt.Errorf("%w: mapping entry %d after %d bytes: %v", ErrTruncated, i, total, err)
		}
		total += binio.Float64Size
		byVertex = append(byVertex, m)
	}

	nbConstraints, err := binio.ReadInt32(r)
	total += binio.Int32Size
	if err != nil {
		return nil, total, fmt.Errorf("%w: reading constraint count: %v", ErrTruncated, err)
	}
	if nbConstraints < 0 {
		return nil, total, fmt.Errorf("%w: negative constraint count %d", ErrCorrupt, nbConstraints)
	}

	ix := &Index{
		Constraints: make([]Constraint, 0, nbConstraints),
		Min:         math.NaN(),
		Max:         math.NaN(),
	}
	for i := int32(0); i < nbConstraints; i++ {
		var c Constraint
		if c.VertexID, err = binio.ReadInt32(r); err != nil {
			return nil, total, fmt.Errorf("%w: constraint %d after %d bytes: %v", ErrTruncated, i, total, err)
		}
		total += binio.Int32Size
		if c.Value, err = binio.ReadFloat64(r); err != nil {
			return nil, total, fmt.Errorf("%w: constraint %d after %d bytes: %v", ErrTruncated, i, total, err)
		}
		total += binio.Float64Size
		if c.VertexType, err = binio.ReadInt32(r); err != nil {
			return nil, total, fmt.Errorf("%w: constraint %d after %d bytes: %v", ErrTruncated, i, total, err)
		}
		total += binio.Int32Size

		if i == 0 {
			ix.Min = c.Value
			ix.Max = c.Value
		} else {
			if c.Value < ix.Min {
				ix.Min = c.Value
			}
			if c.Value > ix.Max {
				ix.Max = c.Value
			}
		}
		ix.Constraints = append(ix.Constraints, c)
	}

	// Build the two sorted views. ByValue uses a stable sort so entries
	// with equal values keep their relative read order.
	byValue := make([]MappingEntry, len(byVertex))
	copy(byValue, byVertex)
	sort.SliceStable(byVertex, func(i, j int) bool {
		return byVertex[i].VertexID < byVertex[j].VertexID
	})
	sort.SliceStable(byValue, func(i, j int) bool {
		return byValue[i].Value < byValue[j].Value
	})
	ix.ByVertex = byVertex
	ix.ByValue = byValue

	return ix, total, nil
}

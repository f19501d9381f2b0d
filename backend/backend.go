// Package backend provides a uniform interface over the bulk-array
// compressors used for residual numeric data: a fixed-accuracy quantizing
// backend and generic lossless byte backends (lz4, zstd).
//
// Backends are selected by stable name at call setup, never mid-stream; the
// chosen name is what a self-describing archive stores in its header.
package backend

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnsupportedRank is returned for true one-dimensional grids, which
	// the quantizing backend does not accept.
	ErrUnsupportedRank = errors.New("one-dimensional arrays not supported")
	// ErrShapeMismatch is returned when a shape does not cover the data.
	ErrShapeMismatch = errors.New("shape does not match data length")
	// ErrInvalidMagic is returned when a payload header is not recognized.
	ErrInvalidMagic = errors.New("invalid backend magic number")
	// ErrInvalidVersion is returned for unsupported payload versions.
	ErrInvalidVersion = errors.New("unsupported backend version")
	// ErrInvalidHeader is returned when a payload header is inconsistent.
	ErrInvalidHeader = errors.New("invalid backend header")
	// ErrTransform is returned when the underlying compressor fails.
	ErrTransform = errors.New("backend transform failed")
	// ErrTruncated is returned when the payload ends early.
	ErrTruncated = errors.New("truncated backend payload")
)

// Shape describes the regular grid a residual array lives on.
// Degenerate dimensions of extent 1 collapse the rank.
type Shape struct {
	NX, NY, NZ int
}

// Count returns the number of grid points.
func (s Shape) Count() int {
	return s.NX * s.NY * s.NZ
}

// validate rejects non-positive extents and true 1-D grids (two of the
// three extents equal to 1). A single degenerate extent is fine: that is a
// 2-D grid.
func (s Shape) validate() error {
	if s.NX < 1 || s.NY < 1 || s.NZ < 1 {
		return fmt.Errorf("%w: extents must be positive, got %dx%dx%d", ErrShapeMismatch, s.NX, s.NY, s.NZ)
	}
	if s.NX+s.NY == 2 || s.NY+s.NZ == 2 || s.NX+s.NZ == 2 {
		return fmt.Errorf("%w: %dx%dx%d", ErrUnsupportedRank, s.NX, s.NY, s.NZ)
	}
	return nil
}

// Backend compresses and decompresses residual float64 arrays.
//
// Decompress must recover exactly what Compress produced for the byte
// backends, and within the committed absolute tolerance for the quantizing
// backend. Shape and tolerance are ignored by the byte backends.
type Backend interface {
	// Name is the stable name of the backend, suitable for storage in a
	// self-describing archive header.
	Name() string
	// Compress writes data to dst and returns the number of bytes written.
	Compress(dst io.Writer, data []float64, shape Shape, tolerance float64) (int, error)
	// Decompress reads one payload from src and returns the recovered
	// array and the number of bytes consumed.
	Decompress(src io.Reader, shape Shape, tolerance float64) ([]float64, int, error)
}

// ByName returns a built-in backend by its stable name.
func ByName(name string) (Backend, bool) {
	switch name {
	case "quantized":
		return NewQuantized(), true
	case "lz4":
		return NewLZ4(), true
	case "zstd":
		return NewZstd(), true
	default:
		return nil, false
	}
}

// Default is the backend used when none is configured.
func Default() Backend {
	return NewQuantized()
}

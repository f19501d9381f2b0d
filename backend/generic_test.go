package backend

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byteBackends() []Backend {
	return []Backend{NewLZ4(), NewZstd()}
}

func TestByteBackendsExactRoundTrip(t *testing.T) {
	shape := Shape{16, 16, 1}
	tests := []struct {
		name string
		data []float64
	}{
		{"compressible", func() []float64 {
			data := make([]float64, shape.Count())
			for i := range data {
				data[i] = float64(i % 8)
			}
			return data
		}()},
		{"incompressible", func() []float64 {
			rng := rand.New(rand.NewSource(3))
			data := make([]float64, shape.Count())
			for i := range data {
				data[i] = rng.NormFloat64()
			}
			return data
		}()},
		{"non-finite", func() []float64 {
			data := make([]float64, shape.Count())
			data[0] = math.Inf(-1)
			data[1] = math.MaxFloat64
			data[2] = -0.0
			return data
		}()},
	}

	for _, b := range byteBackends() {
		for _, tt := range tests {
			t.Run(b.Name()+"/"+tt.name, func(t *testing.T) {
				var buf bytes.Buffer
				n, err := b.Compress(&buf, tt.data, shape, 0.1)
				require.NoError(t, err)
				assert.Equal(t, n, buf.Len())

				got, nr, err := b.Decompress(&buf, shape, 0.1)
				require.NoError(t, err)
				assert.Equal(t, n, nr)

				// Bitwise equality, including the sign of -0.
				require.Len(t, got, len(tt.data))
				for i := range tt.data {
					want := math.Float64bits(tt.data[i])
					have := math.Float64bits(got[i])
					if want != have {
						t.Fatalf("index %d: got %#x, want %#x", i, have, want)
					}
				}
			})
		}
	}
}

func TestByteBackendsEmpty(t *testing.T) {
	for _, b := range byteBackends() {
		t.Run(b.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			n, err := b.Compress(&buf, nil, Shape{4, 4, 1}, 0)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 8)

			got, _, err := b.Decompress(&buf, Shape{4, 4, 1}, 0)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestByteBackendsTruncated(t *testing.T) {
	for _, b := range byteBackends() {
		t.Run(b.Name(), func(t *testing.T) {
			data := make([]float64, 64)
			for i := range data {
				data[i] = float64(i)
			}

			var buf bytes.Buffer
			_, err := b.Compress(&buf, data, Shape{8, 8, 1}, 0)
			require.NoError(t, err)
			full := buf.Bytes()

			for _, cut := range []int{0, 4, 7, len(full) - 1} {
				_, _, err := b.Decompress(bytes.NewReader(full[:cut]), Shape{8, 8, 1}, 0)
				assert.ErrorIs(t, err, ErrTruncated, "cut=%d", cut)
			}
		})
	}
}

func TestReadBlockRejectsMisalignedLength(t *testing.T) {
	// An uncompressed length that is not a float64 multiple cannot have
	// been produced by any backend here.
	var buf bytes.Buffer
	_, err := writeBlock(&buf, 7, make([]byte, 7))
	require.NoError(t, err)

	_, _, _, _, err = readBlock(&buf)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

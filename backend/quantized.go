package backend

import (
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/hupe1980/topocodec/internal/binio"
)

const (
	quantizedMagic   = 0x54505131 // "TPQ1"
	quantizedVersion = 1

	modeRaw       = 0 // lossless float64 payload
	modeQuantized = 1 // bit-packed uniform-quantized payload
)

// maxQuantSteps bounds the number of quantization steps so every step index
// stays exactly representable in a float64 during round-trip arithmetic.
const maxQuantSteps = 1 << 52

// Quantized is the fixed-accuracy backend. It uniform-quantizes the array
// with a step equal to the configured absolute tolerance, so every decoded
// value is within tolerance of the original, bit-packs the step indices and
// zstd-compresses the result behind a self-describing header.
//
// Inputs that cannot honor the bound (non-finite values, a non-positive
// tolerance, or a value range too wide for exact step indices) fall back to
// a lossless raw mode, recorded in the header.
type Quantized struct{}

// NewQuantized creates the fixed-accuracy quantizing backend.
func NewQuantized() *Quantized {
	return &Quantized{}
}

// Name implements Backend.
func (*Quantized) Name() string { return "quantized" }

// Compress implements Backend.
func (q *Quantized) Compress(dst io.Writer, data []float64, shape Shape, tolerance float64) (int, error) {
	if err := shape.validate(); err != nil {
		return 0, err
	}
	if shape.Count() != len(data) {
		return 0, fmt.Errorf("%w: %dx%dx%d grid, %d values", ErrShapeMismatch, shape.NX, shape.NY, shape.NZ, len(data))
	}

	mode, vmin, step, width, values := quantize(data, tolerance)

	var raw []byte
	if mode == modeQuantized {
		packed := packUint64(values, width)
		raw = uint64Bytes(packed)
	} else {
		raw = binio.Float64Bytes(data)
	}

	enc := getZstdEncoder()
	payload := enc.EncodeAll(raw, nil)
	putZstdEncoder(enc)

	total := 0
	for _, v := range []uint32{quantizedMagic, quantizedVersion, uint32(shape.NX), uint32(shape.NY), uint32(shape.NZ)} {
		n, err := binio.WriteUint32(dst, v)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := binio.WriteFloat64(dst, tolerance)
	total += n
	if err != nil {
		return total, err
	}
	if n, err = dst.Write([]byte{mode, byte(width), 0, 0}); err != nil {
		return total + n, err
	}
	total += n
	if n, err = binio.WriteFloat64(dst, vmin); err != nil {
		return total + n, err
	}
	total += n
	if n, err = binio.WriteFloat64(dst, step); err != nil {
		return total + n, err
	}
	total += n
	if n, err = binio.WriteUint32(dst, uint32(len(data))); err != nil {
		return total + n, err
	}
	total += n
	if n, err = binio.WriteUint32(dst, uint32(len(payload))); err != nil {
		return total + n, err
	}
	total += n
	if n, err = dst.Write(payload); err != nil {
		return total + n, err
	}
	total += n
	return total, nil
}

// Decompress implements Backend. The header is authoritative; the tolerance
// argument is unused and the shape argument only cross-checks the stored
// grid extents.
func (q *Quantized) Decompress(src io.Reader, shape Shape, _ float64) ([]float64, int, error) {
	if err := shape.validate(); err != nil {
		return nil, 0, err
	}

	total := 0
	var hdr [5]uint32
	for i := range hdr {
		v, err := binio.ReadUint32(src)
		if err != nil {
			return nil, total, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
		}
		total += binio.Int32Size
		hdr[i] = v
	}
	if hdr[0] != quantizedMagic {
		return nil, total, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr[0])
	}
	if hdr[1] != quantizedVersion {
		return nil, total, fmt.Errorf("%w: got %d", ErrInvalidVersion, hdr[1])
	}
	if int(hdr[2]) != shape.NX || int(hdr[3]) != shape.NY || int(hdr[4]) != shape.NZ {
		return nil, total, fmt.Errorf("%w: stored grid %dx%dx%d, requested %dx%dx%d",
			ErrShapeMismatch, hdr[2], hdr[3], hdr[4], shape.NX, shape.NY, shape.NZ)
	}

	if _, err := binio.ReadFloat64(src); err != nil { // committed tolerance
		return nil, total, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	total += binio.Float64Size

	var flags [4]byte
	if n, err := io.ReadFull(src, flags[:]); err != nil {
		return nil, total + n, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	total += len(flags)
	mode, width := flags[0], uint(flags[1])

	vmin, err := binio.ReadFloat64(src)
	if err != nil {
		return nil, total, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	total += binio.Float64Size
	step, err := binio.ReadFloat64(src)
	if err != nil {
		return nil, total, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	total += binio.Float64Size
	count, err := binio.ReadUint32(src)
	if err != nil {
		return nil, total, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	total += binio.Int32Size
	payloadLen, err := binio.ReadUint32(src)
	if err != nil {
		return nil, total, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	total += binio.Int32Size

	if int(count) != shape.Count() {
		return nil, total, fmt.Errorf("%w: %d values for a %d-point grid", ErrInvalidHeader, count, shape.Count())
	}

	payload := make([]byte, payloadLen)
	n, err := io.ReadFull(src, payload)
	total += n
	if err != nil {
		return nil, total, fmt.Errorf("%w: payload after %d bytes: %v", ErrTruncated, total, err)
	}

	dec := getZstdDecoder()
	raw, err := dec.DecodeAll(payload, nil)
	putZstdDecoder(dec)
	if err != nil {
		return nil, total, fmt.Errorf("%w: zstd: %v", ErrTransform, err)
	}

	switch mode {
	case modeRaw:
		if len(raw) != int(count)*binio.Float64Size {
			return nil, total, fmt.Errorf("%w: raw payload is %d bytes, want %d", ErrInvalidHeader, len(raw), int(count)*binio.Float64Size)
		}
		data := make([]float64, count)
		copy(binio.Float64Bytes(data), raw)
		return data, total, nil

	case modeQuantized:
		if width < 1 || width > 64 {
			return nil, total, fmt.Errorf("%w: bit width %d", ErrInvalidHeader, width)
		}
		words := (int(count)*int(width) + 63) / 64
		if len(raw) != words*8 {
			return nil, total, fmt.Errorf("%w: packed payload is %d bytes, want %d", ErrInvalidHeader, len(raw), words*8)
		}
		packed := make([]uint64, words)
		copy(uint64Bytes(packed), raw)
		values := unpackUint64(packed, int(count), width)
		data := make([]float64, count)
		for i, qv := range values {
			data[i] = vmin + float64(qv)*step
		}
		return data, total, nil

	default:
		return nil, total, fmt.Errorf("%w: unknown mode %d", ErrInvalidHeader, mode)
	}
}

// quantize picks the payload mode for data. In quantized mode every value
// maps to round((v-min)/step) with step == tolerance, so reconstruction at
// min + q*step lands within half a step of the original.
func quantize(data []float64, tolerance float64) (mode byte, vmin, step float64, width uint, values []uint64) {
	if tolerance <= 0 || math.IsInf(tolerance, 0) || math.IsNaN(tolerance) {
		return modeRaw, 0, 0, 0, nil
	}
	vmin, vmax := data[0], data[0]
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return modeRaw, 0, 0, 0, nil
		}
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}

	step = tolerance
	span := (vmax - vmin) / step
	if math.IsInf(span, 0) || span >= maxQuantSteps {
		return modeRaw, 0, 0, 0, nil
	}

	values = make([]uint64, len(data))
	var maxq uint64
	for i, v := range data {
		qv := uint64(math.Round((v - vmin) / step))
		values[i] = qv
		if qv > maxq {
			maxq = qv
		}
	}
	width = uint(bits.Len64(maxq))
	if width == 0 {
		width = 1
	}
	return modeQuantized, vmin, step, width, values
}

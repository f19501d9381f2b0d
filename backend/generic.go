package backend

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/topocodec/internal/binio"
)

// Generic byte backends share one block frame:
// [uncompressedLen uint32][compressedLen uint32][payload]. A compressedLen
// of 0 means the payload is stored verbatim (incompressible input). Shape
// and tolerance carry no meaning here; decode is exact for all inputs.

// LZ4 is the lossless byte backend built on lz4 block compression.
type LZ4 struct{}

// NewLZ4 creates the lz4 byte backend.
func NewLZ4() *LZ4 {
	return &LZ4{}
}

// Name implements Backend.
func (*LZ4) Name() string { return "lz4" }

// Compress implements Backend. The destination bound comes from
// lz4.CompressBlockBound over the source length.
func (*LZ4) Compress(dst io.Writer, data []float64, _ Shape, _ float64) (int, error) {
	src := binio.Float64Bytes(data)
	buf := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, buf, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: lz4: %v", ErrTransform, err)
	}
	if n == 0 || n >= len(src) {
		// Incompressible; store verbatim.
		return writeBlock(dst, len(src), src)
	}
	return writeBlockCompressed(dst, len(src), buf[:n])
}

// Decompress implements Backend.
func (*LZ4) Decompress(src io.Reader, _ Shape, _ float64) ([]float64, int, error) {
	uncompressed, payload, stored, total, err := readBlock(src)
	if err != nil {
		return nil, total, err
	}
	data := make([]float64, uncompressed/binio.Float64Size)
	if stored {
		copy(binio.Float64Bytes(data), payload)
		return data, total, nil
	}
	n, err := lz4.UncompressBlock(payload, binio.Float64Bytes(data))
	if err != nil {
		return nil, total, fmt.Errorf("%w: lz4: %v", ErrTransform, err)
	}
	if n != int(uncompressed) {
		return nil, total, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrTransform, n, uncompressed)
	}
	return data, total, nil
}

// Zstd is the lossless byte backend built on zstd.
type Zstd struct{}

// NewZstd creates the zstd byte backend.
func NewZstd() *Zstd {
	return &Zstd{}
}

// Name implements Backend.
func (*Zstd) Name() string { return "zstd" }

// Compress implements Backend.
func (*Zstd) Compress(dst io.Writer, data []float64, _ Shape, _ float64) (int, error) {
	src := binio.Float64Bytes(data)
	enc := getZstdEncoder()
	compressed := enc.EncodeAll(src, nil)
	putZstdEncoder(enc)
	if len(compressed) >= len(src) && len(src) > 0 {
		return writeBlock(dst, len(src), src)
	}
	return writeBlockCompressed(dst, len(src), compressed)
}

// Decompress implements Backend.
func (*Zstd) Decompress(src io.Reader, _ Shape, _ float64) ([]float64, int, error) {
	uncompressed, payload, stored, total, err := readBlock(src)
	if err != nil {
		return nil, total, err
	}
	data := make([]float64, uncompressed/binio.Float64Size)
	if stored {
		copy(binio.Float64Bytes(data), payload)
		return data, total, nil
	}
	dec := getZstdDecoder()
	decoded, err := dec.DecodeAll(payload, nil)
	putZstdDecoder(dec)
	if err != nil {
		return nil, total, fmt.Errorf("%w: zstd: %v", ErrTransform, err)
	}
	if len(decoded) != int(uncompressed) {
		return nil, total, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrTransform, len(decoded), uncompressed)
	}
	copy(binio.Float64Bytes(data), decoded)
	return data, total, nil
}

func writeBlock(dst io.Writer, uncompressed int, payload []byte) (int, error) {
	return writeFrame(dst, uncompressed, 0, payload)
}

func writeBlockCompressed(dst io.Writer, uncompressed int, payload []byte) (int, error) {
	return writeFrame(dst, uncompressed, len(payload), payload)
}

func writeFrame(dst io.Writer, uncompressed, compressed int, payload []byte) (int, error) {
	total := 0
	n, err := binio.WriteUint32(dst, uint32(uncompressed))
	total += n
	if err != nil {
		return total, err
	}
	n, err = binio.WriteUint32(dst, uint32(compressed))
	total += n
	if err != nil {
		return total, err
	}
	n, err = dst.Write(payload)
	total += n
	if err != nil {
		return total, err
	}
	return total, nil
}

// readBlock reads one frame. stored reports a verbatim (uncompressed)
// payload.
func readBlock(src io.Reader) (uncompressed uint32, payload []byte, stored bool, total int, err error) {
	uncompressed, err = binio.ReadUint32(src)
	if err != nil {
		return 0, nil, false, total, fmt.Errorf("%w: reading frame header: %v", ErrTruncated, err)
	}
	total += binio.Int32Size
	compressed, err := binio.ReadUint32(src)
	if err != nil {
		return 0, nil, false, total, fmt.Errorf("%w: reading frame header: %v", ErrTruncated, err)
	}
	total += binio.Int32Size

	if uncompressed%binio.Float64Size != 0 {
		return 0, nil, false, total, fmt.Errorf("%w: uncompressed length %d is not a float64 multiple", ErrInvalidHeader, uncompressed)
	}

	stored = compressed == 0
	payloadLen := compressed
	if stored {
		payloadLen = uncompressed
	}
	payload = make([]byte, payloadLen)
	n, err := io.ReadFull(src, payload)
	total += n
	if err != nil {
		return 0, nil, false, total, fmt.Errorf("%w: frame payload after %d bytes: %v", ErrTruncated, total, err)
	}
	return uncompressed, payload, stored, total, nil
}

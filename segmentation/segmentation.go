package segmentation

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/hupe1980/topocodec/internal/binio"
)

var (
	// ErrInvalidSegmentCount is returned when the segment count is < 1.
	ErrInvalidSegmentCount = errors.New("number of segments must be at least 1")
	// ErrUnsupportedWidth is returned when the derived bit width exceeds 32.
	ErrUnsupportedWidth = errors.New("segment bit width exceeds 32")
	// ErrSegmentOutOfRange is returned when a segment id falls outside
	// [0, numberOfSegments).
	ErrSegmentOutOfRange = errors.New("segment id out of range")
	// ErrTruncated is returned when the stream ends before all declared
	// vertices are recovered.
	ErrTruncated = errors.New("truncated segmentation stream")
	// ErrCorrupt is returned when declared counts are not decodable.
	ErrCorrupt = errors.New("corrupt segmentation header")
)

// BitWidth returns the number of bits used per segment id,
// floor(log2(numberOfSegments)) + 1. Both encoder and decoder derive the
// width through this one function; it is never stored on the wire.
func BitWidth(numberOfSegments int) (uint, error) {
	if numberOfSegments < 1 {
		return 0, ErrInvalidSegmentCount
	}
	w := uint(bits.Len64(uint64(numberOfSegments)))
	if w > wordBits {
		return 0, fmt.Errorf("%w: %d segments need %d bits", ErrUnsupportedWidth, numberOfSegments, w)
	}
	return w, nil
}

// PackedWords returns the number of 32-bit words the packed stream occupies
// for numberOfVertices ids of the given width.
func PackedWords(numberOfVertices int, width uint) int {
	return (numberOfVertices*int(width) + wordBits - 1) / wordBits
}

// Write encodes seg into w. The wire layout is
// [numberOfVertices int32][numberOfSegments int32][packed words]. All
// validation happens before the first byte is written; on error the stream
// is untouched. Returns the number of bytes written.
func Write(w io.Writer, seg []int32, numberOfSegments int) (int, error) {
	width, err := BitWidth(numberOfSegments)
	if err != nil {
		return 0, err
	}
	if numberOfSegments > math.MaxInt32 {
		// The wire field is an int32, independent of the width limit.
		return 0, fmt.Errorf("%w: %d segments overflow the int32 count field", ErrUnsupportedWidth, numberOfSegments)
	}
	for i, v := range seg {
		if v < 0 || int64(v) >= int64(numberOfSegments) {
			return 0, fmt.Errorf("%w: seg[%d] = %d, have %d segments", ErrSegmentOutOfRange, i, v, numberOfSegments)
		}
	}

	p := newPacker(len(seg) * int(width))
	for _, v := range seg {
		p.pushBits(uint32(v), width)
	}
	words := p.finish()

	total := 0
	n, err := binio.WriteInt32(w, int32(len(seg)))
	total += n
	if err != nil {
		return total, err
	}
	n, err = binio.WriteInt32(w, int32(numberOfSegments))
	total += n
	if err != nil {
		return total, err
	}
	n, err = binio.WriteUint32Slice(w, words)
	total += n
	if err != nil {
		return total, err
	}
	return total, nil
}

// Read decodes a segmentation block written by Write. It recomputes the bit
// width from the stored segment count and returns the recovered ids, the
// stored segment count, and the number of bytes consumed.
func Read(r io.Reader) ([]int32, int, int, error) {
	total := 0

	numberOfVertices, err := binio.ReadInt32(r)
	total += binio.Int32Size
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: reading vertex count: %v", ErrTruncated, err)
	}
	numberOfSegments, err := binio.ReadInt32(r)
	total += binio.Int32Size
	if err != nil {
		return nil, 0, total, fmt.Errorf("%w: reading segment count: %v", ErrTruncated, err)
	}
	if numberOfVertices < 0 {
		return nil, 0, total, fmt.Errorf("%w: negative vertex count %d", ErrCorrupt, numberOfVertices)
	}

	width, err := BitWidth(int(numberOfSegments))
	if err != nil {
		return nil, 0, total, err
	}

	words, n, err := binio.ReadUint32Slice(r, PackedWords(int(numberOfVertices), width))
	total += n
	if err != nil {
		return nil, 0, total, fmt.Errorf("%w: after %d bytes: %v", ErrTruncated, total, err)
	}

	seg := make([]int32, numberOfVertices)
	u := &unpacker{words: words}
	for i := range seg {
		v, ok := u.popBits(width)
		if !ok {
			return nil, 0, total, fmt.Errorf("%w: recovered %d of %d vertices", ErrTruncated, i, numberOfVertices)
		}
		seg[i] = int32(v)
	}
	return seg, int(numberOfSegments), total, nil
}

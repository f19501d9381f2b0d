package backend

import "unsafe"

// uint64Bytes returns a zero-copy byte view of s.
func uint64Bytes(s []uint64) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
}

// packUint64 packs values into a dense []uint64, width bits per value,
// least-significant-bit first. Valid for width in [1,64].
func packUint64(values []uint64, width uint) []uint64 {
	if len(values) == 0 {
		return nil
	}
	totalBits := len(values) * int(width)
	packed := make([]uint64, (totalBits+63)/64)

	mask := ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << width) - 1
	}

	for i, v := range values {
		bitPos := i * int(width)
		word := bitPos / 64
		off := uint(bitPos % 64)

		v &= mask
		packed[word] |= v << off

		if avail := 64 - off; avail < width {
			packed[word+1] |= v >> avail
		}
	}
	return packed
}

// unpackUint64 is the inverse of packUint64.
func unpackUint64(packed []uint64, count int, width uint) []uint64 {
	values := make([]uint64, count)
	if count == 0 {
		return values
	}
	mask := ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << width) - 1
	}

	for i := range values {
		bitPos := i * int(width)
		word := bitPos / 64
		off := uint(bitPos % 64)

		v := packed[word] >> off
		if avail := 64 - off; avail < width {
			v |= packed[word+1] << avail
		}
		values[i] = v & mask
	}
	return values
}

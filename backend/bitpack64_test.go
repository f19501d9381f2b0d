package backend

import (
	"math/rand"
	"testing"
)

func TestPackUint64RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, width := range []uint{1, 2, 3, 13, 31, 32, 33, 52, 63, 64} {
		mask := ^uint64(0)
		if width < 64 {
			mask = (uint64(1) << width) - 1
		}
		values := make([]uint64, 300)
		for i := range values {
			values[i] = rng.Uint64() & mask
		}

		packed := packUint64(values, width)
		wantWords := (len(values)*int(width) + 63) / 64
		if len(packed) != wantWords {
			t.Fatalf("width %d: %d words, want %d", width, len(packed), wantWords)
		}

		got := unpackUint64(packed, len(values), width)
		for i := range values {
			if got[i] != values[i] {
				t.Fatalf("width %d: value %d: got %d, want %d", width, i, got[i], values[i])
			}
		}
	}
}

func TestPackUint64Empty(t *testing.T) {
	if packed := packUint64(nil, 7); packed != nil {
		t.Fatalf("expected nil for empty input, got %v", packed)
	}
	if got := unpackUint64(nil, 0, 7); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}

func TestUint64BytesRoundTrip(t *testing.T) {
	values := []uint64{0x0123456789ABCDEF, ^uint64(0), 0}
	raw := uint64Bytes(values)
	if len(raw) != 24 {
		t.Fatalf("got %d bytes, want 24", len(raw))
	}

	back := make([]uint64, 3)
	copy(uint64Bytes(back), raw)
	for i := range values {
		if back[i] != values[i] {
			t.Fatalf("value %d: got %#x, want %#x", i, back[i], values[i])
		}
	}
}

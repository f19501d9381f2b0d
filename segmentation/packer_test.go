package segmentation

import (
	"math/rand"
	"testing"
)

func TestPackerRoundTrip(t *testing.T) {
	for _, width := range []uint{1, 2, 3, 7, 8, 15, 16, 20, 31, 32} {
		values := make([]uint32, 200)
		rng := rand.New(rand.NewSource(int64(width)))
		for i := range values {
			values[i] = rng.Uint32() & widthMask(width)
		}

		p := newPacker(len(values) * int(width))
		for _, v := range values {
			p.pushBits(v, width)
		}
		words := p.finish()

		wantWords := (len(values)*int(width) + wordBits - 1) / wordBits
		if len(words) != wantWords {
			t.Fatalf("width %d: got %d words, want %d", width, len(words), wantWords)
		}

		u := &unpacker{words: words}
		for i, want := range values {
			got, ok := u.popBits(width)
			if !ok {
				t.Fatalf("width %d: ran out of bits at value %d", width, i)
			}
			if got != want {
				t.Fatalf("width %d: value %d: got %d, want %d", width, i, got, want)
			}
		}
	}
}

// Fields that straddle word boundaries must carry their high bits into the
// next word, including when the carried bits land on bit 31.
func TestPackerCarryAcrossWords(t *testing.T) {
	const width = 20
	values := []uint32{0xFFFFF, 0xFFFFF, 0xFFFFF, 0x12345}

	p := newPacker(len(values) * width)
	for _, v := range values {
		p.pushBits(v, width)
	}
	words := p.finish()
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3 for 80 bits", len(words))
	}
	// Value 0 fills bits 0-19 of word 0, value 1 splits 12/8 across
	// words 0 and 1, so word 0 must be all ones.
	if words[0] != 0xFFFFFFFF {
		t.Fatalf("word 0 = %#x, want 0xFFFFFFFF", words[0])
	}

	u := &unpacker{words: words}
	for i, want := range values {
		got, ok := u.popBits(width)
		if !ok || got != want {
			t.Fatalf("value %d: got %d (ok=%v), want %d", i, got, ok, want)
		}
	}
}

func TestPackerTopBitOnBit31(t *testing.T) {
	// Three 11-bit values put the third field across bits 22-32, so its
	// top bit lands past the sign bit of a 32-bit word. A signed shift
	// implementation corrupts exactly this case.
	const width = 11
	values := []uint32{0x7FF, 0x400, 0x7FF, 0x555}

	p := newPacker(len(values) * width)
	for _, v := range values {
		p.pushBits(v, width)
	}
	u := &unpacker{words: p.finish()}
	for i, want := range values {
		got, ok := u.popBits(width)
		if !ok || got != want {
			t.Fatalf("value %d: got %d (ok=%v), want %d", i, got, ok, want)
		}
	}
}

func TestUnpackerTruncated(t *testing.T) {
	u := &unpacker{words: []uint32{0}}
	for i := 0; i < 32; i++ {
		if _, ok := u.popBits(1); !ok {
			t.Fatalf("bit %d should be available", i)
		}
	}
	if _, ok := u.popBits(1); ok {
		t.Fatal("expected exhaustion after 32 bits")
	}
}

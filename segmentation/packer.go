package segmentation

const wordBits = 32

// widthMask returns a mask of the low width bits. Valid for width in [1,32].
func widthMask(width uint) uint32 {
	return uint32((uint64(1) << width) - 1)
}

// packer accumulates fixed-width fields into 32-bit words. The accumulator
// word, the bit offset into it, and the carry of a field split across a word
// boundary are the whole of the encoder state; every intermediate value is an
// unsigned bit pattern, so shifts never sign-extend.
type packer struct {
	words []uint32
	word  uint32 // accumulator being filled
	off   uint   // bits of word already used, always < 32
}

func newPacker(totalBits int) *packer {
	return &packer{
		words: make([]uint32, 0, (totalBits+wordBits-1)/wordBits),
	}
}

// pushBits appends the low width bits of v to the stream.
func (p *packer) pushBits(v uint32, width uint) {
	v &= widthMask(width)
	p.word |= v << p.off
	if p.off+width >= wordBits {
		p.words = append(p.words, p.word)
		carried := p.off + width - wordBits // bits of v pending into the next word
		p.word = 0
		if carried > 0 {
			p.word = v >> (width - carried)
		}
		p.off = carried
	} else {
		p.off += width
	}
}

// finish flushes a partially filled final word and returns the packed words.
func (p *packer) finish() []uint32 {
	if p.off > 0 {
		p.words = append(p.words, p.word)
		p.word = 0
		p.off = 0
	}
	return p.words
}

// unpacker is the inverse state machine, walking the same word stream.
type unpacker struct {
	words []uint32
	pos   int
	off   uint // bits of words[pos] already consumed, always < 32
}

// popBits extracts the next width-bit field. ok is false once the word
// stream cannot supply another full field.
func (u *unpacker) popBits(width uint) (v uint32, ok bool) {
	if u.off+width <= wordBits {
		if u.pos >= len(u.words) {
			return 0, false
		}
		v = (u.words[u.pos] >> u.off) & widthMask(width)
		u.off += width
		if u.off == wordBits {
			u.pos++
			u.off = 0
		}
		return v, true
	}

	// Field split across two words: low part is the remainder of the
	// current word, high part the first bits of the next.
	if u.pos+1 >= len(u.words) {
		return 0, false
	}
	low := u.words[u.pos] >> u.off
	nlow := wordBits - u.off
	u.pos++
	rem := width - nlow
	high := u.words[u.pos] & widthMask(rem)
	u.off = rem
	return low | high<<nlow, true
}

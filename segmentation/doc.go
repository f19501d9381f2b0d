// Package segmentation encodes per-vertex segment identifiers into a dense
// bit stream and decodes them back.
//
// Each identifier occupies exactly BitWidth(numberOfSegments) bits. Fields
// are packed least-significant-bit first into 32-bit words with no padding
// between values, so a field may straddle two adjacent words; only the tail
// of the final word is unused. The width is never stored: both sides derive
// it from the segment count, which precedes the packed words on the wire.
package segmentation

package segmentation

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Stats summarizes the segment ids that actually occur in a segmentation.
type Stats struct {
	// Vertices is the number of per-vertex ids scanned.
	Vertices int
	// Distinct is the number of distinct segment ids present.
	Distinct uint64
	// MaxID is the largest segment id present; -1 when the input is empty.
	MaxID int32
}

// SegmentCount returns the smallest segment count that makes every observed
// id valid, i.e. MaxID+1.
func (s Stats) SegmentCount() int {
	return int(s.MaxID) + 1
}

// Collect scans seg and returns occupancy statistics. Producers that do not
// track their segment count use Collect to derive it before encoding;
// Collect also rejects negative ids, which no valid segmentation contains.
func Collect(seg []int32) (Stats, error) {
	st := Stats{Vertices: len(seg), MaxID: -1}
	if len(seg) == 0 {
		return st, nil
	}
	seen := roaring.New()
	for i, v := range seg {
		if v < 0 {
			return Stats{}, fmt.Errorf("%w: seg[%d] = %d", ErrSegmentOutOfRange, i, v)
		}
		seen.Add(uint32(v))
	}
	st.Distinct = seen.GetCardinality()
	st.MaxID = int32(seen.Maximum())
	return st, nil
}

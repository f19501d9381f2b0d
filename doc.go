// Package topocodec persists topologically simplified scalar fields to a
// compact byte stream and reconstructs them exactly.
//
// A field record holds three blocks, always in the same order: the
// bit-packed per-vertex segmentation, the persistence index (value/vertex
// mapping plus pinned constraints), and the residual numeric array run
// through a pluggable compressor backend.
//
// # Quick start
//
//	codec := topocodec.New(topocodec.WithTolerance(1e-4))
//
//	var buf bytes.Buffer
//	_, err := codec.EncodeField(&buf, &topocodec.Field{
//		Segmentation:     seg,
//		NumberOfSegments: 12,
//		Mapping:          mapping,
//		Constraints:      constraints,
//		Residual:         residual,
//		Shape:            backend.Shape{NX: 64, NY: 64, NZ: 1},
//	})
//
//	field, _, err := codec.DecodeField(&buf)
//
// The component codecs (segmentation, persistence, backend) are usable on
// their own for callers that compose their own stream layout.
package topocodec

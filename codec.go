package topocodec

import (
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/topocodec/backend"
	"github.com/hupe1980/topocodec/internal/binio"
	"github.com/hupe1980/topocodec/persistence"
	"github.com/hupe1980/topocodec/segmentation"
)

const (
	archiveMagic   = 0x54504331 // "TPC1"
	archiveVersion = 1

	flagResidual = 1 << 0
)

// Field is one scalar field in its simplified form: the per-vertex
// segmentation, the persistence index needed to reconstruct exact scalar
// values, and optionally a residual array handled by the compressor backend.
type Field struct {
	Segmentation     []int32
	NumberOfSegments int

	Mapping     []persistence.MappingEntry
	Constraints []persistence.Constraint

	// Residual is the non-segmented numeric payload; may be empty.
	// Shape describes the grid it lives on and is required with it.
	Residual []float64
	Shape    backend.Shape

	// Index carries the sorted mapping views and constraint min/max.
	// Populated on decode; ignored on encode.
	Index *persistence.Index
}

// Codec encodes and decodes field archives. A Codec is immutable after New
// and safe for concurrent use as long as each call gets its own stream.
type Codec struct {
	opts options
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Codec{opts: o}
}

// EncodeField writes one self-describing field archive to w and returns the
// number of bytes written. Identical input and configuration produce
// byte-identical output.
func (c *Codec) EncodeField(w io.Writer, f *Field) (written int, err error) {
	start := time.Now()
	defer func() {
		c.opts.metrics.RecordEncode(written, time.Since(start), err)
		c.opts.logger.WithBackend(c.opts.backend.Name()).LogEncode(len(f.Segmentation), written, err)
	}()

	// Validate everything that can fail before the first byte is written.
	if f.NumberOfSegments < 1 {
		return 0, segmentation.ErrInvalidSegmentCount
	}
	if len(f.Residual) > 0 && f.Shape.Count() != len(f.Residual) {
		return 0, fmt.Errorf("%w: %d residual values on a %d-point grid",
			backend.ErrShapeMismatch, len(f.Residual), f.Shape.Count())
	}

	var flags uint32
	if len(f.Residual) > 0 {
		flags |= flagResidual
	}

	n, err := c.writeHeader(w, flags, f.Shape)
	written += n
	if err != nil {
		return written, err
	}

	n, err = segmentation.Write(w, f.Segmentation, f.NumberOfSegments)
	written += n
	if err != nil {
		return written, err
	}

	n, err = persistence.Write(w, f.Mapping, f.Constraints)
	written += n
	if err != nil {
		return written, err
	}

	if flags&flagResidual != 0 {
		n, err = c.opts.backend.Compress(w, f.Residual, f.Shape, c.opts.tolerance)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// DecodeField reads one field archive from r. The archive header names the
// backend and tolerance it was written with, so a Codec can decode archives
// produced under a different configuration. Returns the field and the
// number of bytes consumed; on failure the error carries the byte offset
// reached.
func (c *Codec) DecodeField(r io.Reader) (f *Field, read int, err error) {
	start := time.Now()
	defer func() {
		c.opts.metrics.RecordDecode(read, time.Since(start), err)
		vertices := 0
		if f != nil {
			vertices = len(f.Segmentation)
		}
		c.opts.logger.LogDecode(vertices, read, err)
	}()

	flags, name, tolerance, shape, n, err := c.readHeader(r)
	read += n
	if err != nil {
		return nil, read, atOffset(err, read)
	}

	be, ok := backend.ByName(name)
	if !ok {
		return nil, read, atOffset(fmt.Errorf("%w: %q", ErrUnknownBackend, name), read)
	}

	seg, numberOfSegments, n, err := segmentation.Read(r)
	read += n
	if err != nil {
		return nil, read, atOffset(err, read)
	}

	ix, n, err := persistence.Read(r)
	read += n
	if err != nil {
		return nil, read, atOffset(err, read)
	}
	if !ix.HasConstraints() {
		c.opts.logger.Warn("archive has no value constraints; min/max are undefined")
	}

	f = &Field{
		Segmentation:     seg,
		NumberOfSegments: numberOfSegments,
		Mapping:          ix.ByVertex,
		Constraints:      ix.Constraints,
		Shape:            shape,
		Index:            ix,
	}

	if flags&flagResidual != 0 {
		residual, n, err := be.Decompress(r, shape, tolerance)
		read += n
		if err != nil {
			return nil, read, atOffset(err, read)
		}
		f.Residual = residual
	}
	return f, read, nil
}

func (c *Codec) writeHeader(w io.Writer, flags uint32, shape backend.Shape) (int, error) {
	total := 0
	name := c.opts.backend.Name()

	for _, v := range []uint32{archiveMagic, archiveVersion, flags, uint32(len(name))} {
		n, err := binio.WriteUint32(w, v)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := io.WriteString(w, name)
	total += n
	if err != nil {
		return total, err
	}
	if n, err = binio.WriteFloat64(w, c.opts.tolerance); err != nil {
		return total + n, err
	}
	total += n
	for _, v := range []uint32{uint32(shape.NX), uint32(shape.NY), uint32(shape.NZ)} {
		n, err := binio.WriteUint32(w, v)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Codec) readHeader(r io.Reader) (flags uint32, name string, tolerance float64, shape backend.Shape, total int, err error) {
	var hdr [4]uint32
	for i := range hdr {
		v, err := binio.ReadUint32(r)
		if err != nil {
			return 0, "", 0, backend.Shape{}, total, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		total += binio.Int32Size
		hdr[i] = v
	}
	if hdr[0] != archiveMagic {
		return 0, "", 0, backend.Shape{}, total, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr[0])
	}
	if hdr[1] != archiveVersion {
		return 0, "", 0, backend.Shape{}, total, fmt.Errorf("%w: got %d", ErrInvalidVersion, hdr[1])
	}
	flags = hdr[2]

	nameLen := hdr[3]
	if nameLen > 64 {
		return 0, "", 0, backend.Shape{}, total, fmt.Errorf("%w: backend name length %d", ErrInvalidHeader, nameLen)
	}
	nameBuf := make([]byte, nameLen)
	n, err := io.ReadFull(r, nameBuf)
	total += n
	if err != nil {
		return 0, "", 0, backend.Shape{}, total, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	name = string(nameBuf)

	tolerance, err = binio.ReadFloat64(r)
	if err != nil {
		return 0, "", 0, backend.Shape{}, total, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	total += binio.Float64Size

	var dims [3]uint32
	for i := range dims {
		v, err := binio.ReadUint32(r)
		if err != nil {
			return 0, "", 0, backend.Shape{}, total, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		total += binio.Int32Size
		dims[i] = v
	}
	shape = backend.Shape{NX: int(dims[0]), NY: int(dims[1]), NZ: int(dims[2])}
	return flags, name, tolerance, shape, total, nil
}

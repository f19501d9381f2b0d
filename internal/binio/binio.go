// Package binio implements fixed-size binary reads and writes of the scalar
// types that make up a compressed field record.
//
// All values are little-endian on the wire. Bulk slice transfers go through
// unsafe byte views of the backing array to avoid a copy per element; the
// package is therefore restricted to little-endian hosts (validated at init).
package binio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"runtime"
	"unsafe"
)

func init() {
	if err := validatePlatform(); err != nil {
		panic(fmt.Sprintf("topocodec/binio: %v", err))
	}
}

func validatePlatform() error {
	arch := runtime.GOARCH
	if arch != "amd64" && arch != "arm64" {
		return fmt.Errorf("unsupported architecture: %s", arch)
	}
	var test uint16 = 0x0001
	if *(*byte)(unsafe.Pointer(&test)) != 1 {
		return fmt.Errorf("big-endian systems are not supported")
	}
	return nil
}

// Int32Size and Float64Size are the wire sizes of the two scalar types the
// record format is built from.
const (
	Int32Size   = 4
	Float64Size = 8
)

// WriteInt32 appends the 4-byte representation of v to w.
// It returns the number of bytes written.
func WriteInt32(w io.Writer, v int32) (int, error) {
	var buf [Int32Size]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	return w.Write(buf[:])
}

// WriteUint32 appends the 4-byte representation of v to w.
func WriteUint32(w io.Writer, v uint32) (int, error) {
	var buf [Int32Size]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return w.Write(buf[:])
}

// WriteFloat64 appends the 8-byte IEEE 754 representation of v to w.
func WriteFloat64(w io.Writer, v float64) (int, error) {
	var buf [Float64Size]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return w.Write(buf[:])
}

// ReadInt32 consumes exactly 4 bytes from r.
// A short stream yields an error wrapping io.ErrUnexpectedEOF.
func ReadInt32(r io.Reader) (int32, error) {
	var buf [Int32Size]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, shortRead(err)
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

// ReadUint32 consumes exactly 4 bytes from r.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [Int32Size]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, shortRead(err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadFloat64 consumes exactly 8 bytes from r.
func ReadFloat64(r io.Reader) (float64, error) {
	var buf [Float64Size]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, shortRead(err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// WriteUint32Slice writes the slice as raw little-endian bytes (zero-copy).
func WriteUint32Slice(w io.Writer, s []uint32) (int, error) {
	if len(s) == 0 {
		return 0, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*Int32Size)
	return w.Write(b)
}

// ReadUint32Slice reads count uint32 values as raw bytes.
func ReadUint32Slice(r io.Reader, count int) ([]uint32, int, error) {
	if count == 0 {
		return nil, 0, nil
	}
	s := make([]uint32, count)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), count*Int32Size)
	n, err := io.ReadFull(r, b)
	if err != nil {
		return nil, n, shortRead(err)
	}
	return s, n, nil
}

// WriteUint64Slice writes the slice as raw little-endian bytes (zero-copy).
func WriteUint64Slice(w io.Writer, s []uint64) (int, error) {
	if len(s) == 0 {
		return 0, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	return w.Write(b)
}

// ReadUint64Slice reads count uint64 values as raw bytes.
func ReadUint64Slice(r io.Reader, count int) ([]uint64, int, error) {
	if count == 0 {
		return nil, 0, nil
	}
	s := make([]uint64, count)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), count*8)
	n, err := io.ReadFull(r, b)
	if err != nil {
		return nil, n, shortRead(err)
	}
	return s, n, nil
}

// WriteFloat64Slice writes the slice as raw little-endian bytes (zero-copy).
func WriteFloat64Slice(w io.Writer, s []float64) (int, error) {
	if len(s) == 0 {
		return 0, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*Float64Size)
	return w.Write(b)
}

// ReadFloat64Slice reads count float64 values as raw bytes.
func ReadFloat64Slice(r io.Reader, count int) ([]float64, int, error) {
	if count == 0 {
		return nil, 0, nil
	}
	s := make([]float64, count)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), count*Float64Size)
	n, err := io.ReadFull(r, b)
	if err != nil {
		return nil, n, shortRead(err)
	}
	return s, n, nil
}

// Float64Bytes returns a zero-copy byte view of s.
// The view is valid as long as s is.
func Float64Bytes(s []float64) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*Float64Size)
}

// shortRead normalizes io.EOF mid-value to io.ErrUnexpectedEOF so that a
// truncated stream is distinguishable from a clean end of input.
func shortRead(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

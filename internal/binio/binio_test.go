package binio

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func TestScalarRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	for _, v := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32} {
		buf.Reset()
		n, err := WriteInt32(&buf, v)
		if err != nil || n != Int32Size {
			t.Fatalf("WriteInt32(%d): n=%d err=%v", v, n, err)
		}
		got, err := ReadInt32(&buf)
		if err != nil || got != v {
			t.Fatalf("ReadInt32: got %d err=%v, want %d", got, err, v)
		}
	}

	for _, v := range []uint32{0, 1, math.MaxUint32} {
		buf.Reset()
		if _, err := WriteUint32(&buf, v); err != nil {
			t.Fatal(err)
		}
		got, err := ReadUint32(&buf)
		if err != nil || got != v {
			t.Fatalf("ReadUint32: got %d err=%v, want %d", got, err, v)
		}
	}

	for _, v := range []float64{0, -0.0, 1.5, -math.MaxFloat64, math.Inf(1)} {
		buf.Reset()
		if _, err := WriteFloat64(&buf, v); err != nil {
			t.Fatal(err)
		}
		got, err := ReadFloat64(&buf)
		if err != nil || math.Float64bits(got) != math.Float64bits(v) {
			t.Fatalf("ReadFloat64: got %v err=%v, want %v", got, err, v)
		}
	}
}

func TestLittleEndianLayout(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteInt32(&buf, 0x01020304); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	u32 := []uint32{0, 1, 0xDEADBEEF, math.MaxUint32}
	n, err := WriteUint32Slice(&buf, u32)
	if err != nil || n != len(u32)*Int32Size {
		t.Fatalf("WriteUint32Slice: n=%d err=%v", n, err)
	}
	gotU32, n, err := ReadUint32Slice(&buf, len(u32))
	if err != nil || n != len(u32)*Int32Size {
		t.Fatalf("ReadUint32Slice: n=%d err=%v", n, err)
	}
	for i := range u32 {
		if gotU32[i] != u32[i] {
			t.Fatalf("uint32[%d]: got %d, want %d", i, gotU32[i], u32[i])
		}
	}

	buf.Reset()
	u64 := []uint64{0, ^uint64(0), 0x0123456789ABCDEF}
	if _, err := WriteUint64Slice(&buf, u64); err != nil {
		t.Fatal(err)
	}
	gotU64, _, err := ReadUint64Slice(&buf, len(u64))
	if err != nil {
		t.Fatal(err)
	}
	for i := range u64 {
		if gotU64[i] != u64[i] {
			t.Fatalf("uint64[%d]: got %d, want %d", i, gotU64[i], u64[i])
		}
	}

	buf.Reset()
	f64 := []float64{1.5, math.NaN(), math.Inf(-1), -0.0}
	if _, err := WriteFloat64Slice(&buf, f64); err != nil {
		t.Fatal(err)
	}
	gotF64, _, err := ReadFloat64Slice(&buf, len(f64))
	if err != nil {
		t.Fatal(err)
	}
	for i := range f64 {
		if math.Float64bits(gotF64[i]) != math.Float64bits(f64[i]) {
			t.Fatalf("float64[%d]: got %v, want %v", i, gotF64[i], f64[i])
		}
	}
}

func TestEmptySlices(t *testing.T) {
	var buf bytes.Buffer
	if n, err := WriteUint32Slice(&buf, nil); n != 0 || err != nil {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if s, n, err := ReadUint32Slice(&buf, 0); s != nil || n != 0 || err != nil {
		t.Fatalf("s=%v n=%d err=%v", s, n, err)
	}
	if b := Float64Bytes(nil); b != nil {
		t.Fatalf("Float64Bytes(nil) = %v", b)
	}
}

func TestShortReadIsUnexpectedEOF(t *testing.T) {
	if _, err := ReadInt32(bytes.NewReader(nil)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v", err)
	}
	if _, err := ReadFloat64(bytes.NewReader([]byte{1, 2, 3})); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v", err)
	}
	if _, _, err := ReadUint32Slice(bytes.NewReader([]byte{1, 2}), 2); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v", err)
	}
}

func TestFloat64Bytes(t *testing.T) {
	s := []float64{1.0}
	b := Float64Bytes(s)
	if len(b) != Float64Size {
		t.Fatalf("got %d bytes", len(b))
	}
	// 1.0 is 0x3FF0000000000000; little-endian puts the high byte last.
	if b[7] != 0x3F || b[6] != 0xF0 {
		t.Fatalf("got % x", b)
	}
}

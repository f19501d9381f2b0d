package topocodec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMagic is returned when an archive does not start with the
	// topocodec magic number.
	ErrInvalidMagic = errors.New("invalid archive magic number")
	// ErrInvalidVersion is returned for unsupported archive versions.
	ErrInvalidVersion = errors.New("unsupported archive version")
	// ErrInvalidHeader is returned when an archive header is inconsistent.
	ErrInvalidHeader = errors.New("invalid archive header")
	// ErrUnknownBackend is returned when an archive names a backend this
	// build does not provide.
	ErrUnknownBackend = errors.New("unknown compressor backend")
	// ErrTruncated is returned when an archive ends mid-record.
	ErrTruncated = errors.New("truncated archive")
)

// OffsetError annotates a decode failure with the byte offset already
// consumed, so callers can report exact positions in corrupted archives.
//
// The underlying error can be accessed via errors.Unwrap.
type OffsetError struct {
	Offset int
	cause  error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("%v (at byte %d)", e.cause, e.Offset)
}

func (e *OffsetError) Unwrap() error { return e.cause }

func atOffset(err error, offset int) error {
	if err == nil {
		return nil
	}
	return &OffsetError{Offset: offset, cause: err}
}

package fieldstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an archive does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for persisting immutable field archives.
type Store interface {
	// Open opens an archive for sequential reading.
	Open(ctx context.Context, name string) (Archive, error)
	// Create opens a streaming writer for a new archive. The archive
	// becomes visible on Close; Abort discards it.
	Create(ctx context.Context, name string) (WritableArchive, error)
	// Put writes an archive atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes an archive. Deleting a missing archive is not an
	// error.
	Delete(ctx context.Context, name string) error
	// List returns all archive names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Archive is a read-only handle to one stored archive.
type Archive interface {
	io.Reader
	io.Closer
	// Size returns the size of the archive in bytes.
	Size() int64
}

// WritableArchive is a streaming write handle.
type WritableArchive interface {
	io.Writer
	// Close finishes the write and publishes the archive.
	io.Closer
	// Abort discards everything written so far.
	Abort() error
}

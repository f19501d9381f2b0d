package fieldstore

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/topocodec/internal/mmap"
)

// LocalStore implements Store on the local filesystem. Reads are
// mmap-backed; writes go through a temp file and an atomic rename so a
// crash never leaves a partial archive behind.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, name)
}

// Open opens an archive for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Archive, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	return &localArchive{m: m}, nil
}

// Create opens a streaming writer. The archive is published by the rename
// in Close.
func (s *LocalStore) Create(_ context.Context, name string) (WritableArchive, error) {
	target := s.path(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		return nil, err
	}
	_ = tmp.Chmod(0o644)
	return &localWritableArchive{
		f:      tmp,
		buf:    bufio.NewWriterSize(tmp, 256*1024),
		target: target,
	}, nil
}

// Put writes an archive atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Delete removes an archive.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns all archive names under root with the given prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localArchive struct {
	m   *mmap.Mapping
	off int64
}

func (a *localArchive) Read(p []byte) (int, error) {
	data := a.m.Bytes()
	if a.off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[a.off:])
	a.off += int64(n)
	return n, nil
}

func (a *localArchive) Size() int64 {
	return a.m.Size()
}

func (a *localArchive) Close() error {
	return a.m.Close()
}

type localWritableArchive struct {
	f        *os.File
	buf      *bufio.Writer
	target   string
	finished atomic.Bool
}

func (a *localWritableArchive) Write(p []byte) (int, error) {
	return a.buf.Write(p)
}

func (a *localWritableArchive) Close() error {
	if !a.finished.CompareAndSwap(false, true) {
		return errors.New("already closed")
	}
	tmpName := a.f.Name()
	if err := a.buf.Flush(); err != nil {
		_ = a.f.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := a.f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, a.target); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(filepath.Dir(a.target)); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func (a *localWritableArchive) Abort() error {
	if !a.finished.CompareAndSwap(false, true) {
		return nil
	}
	name := a.f.Name()
	_ = a.f.Close()
	return os.Remove(name)
}

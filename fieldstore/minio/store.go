// Package minio implements fieldstore.Store for MinIO and other
// S3-compatible storage.
package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/topocodec/fieldstore"
)

// Store implements fieldstore.Store for MinIO.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a MinIO archive store. rootPrefix is prepended to all
// keys (e.g. "fields/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open opens an archive for sequential reading.
func (s *Store) Open(ctx context.Context, name string) (fieldstore.Archive, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fieldstore.ErrNotFound
		}
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return &minioArchive{obj: obj, size: info.Size}, nil
}

// Create opens a streaming upload. The object becomes visible when Close
// returns.
func (s *Store) Create(ctx context.Context, name string) (fieldstore.WritableArchive, error) {
	key := s.key(name)
	pr, pw := io.Pipe()

	a := &minioWritableArchive{
		pw:   pw,
		done: make(chan error, 1),
	}
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		a.done <- err
	}()
	return a, nil
}

// Put writes an archive in one call.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Delete removes an archive.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// List returns all archive names with the given prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

type minioArchive struct {
	obj  *minio.Object
	size int64
}

func (a *minioArchive) Read(p []byte) (int, error) { return a.obj.Read(p) }

func (a *minioArchive) Size() int64 { return a.size }

func (a *minioArchive) Close() error { return a.obj.Close() }

type minioWritableArchive struct {
	pw       *io.PipeWriter
	done     chan error
	finished atomic.Bool
}

func (a *minioWritableArchive) Write(p []byte) (int, error) {
	return a.pw.Write(p)
}

func (a *minioWritableArchive) Close() error {
	if !a.finished.CompareAndSwap(false, true) {
		return errors.New("already closed")
	}
	if err := a.pw.Close(); err != nil {
		return err
	}
	return <-a.done
}

func (a *minioWritableArchive) Abort() error {
	if !a.finished.CompareAndSwap(false, true) {
		return nil
	}
	return a.pw.CloseWithError(errors.New("upload aborted"))
}

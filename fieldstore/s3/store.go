// Package s3 implements fieldstore.Store on Amazon S3.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/topocodec/fieldstore"
)

// Store implements fieldstore.Store for S3.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewStore creates an S3 archive store. rootPrefix is prepended to all keys
// (e.g. "fields/").
func NewStore(client *s3.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

// New creates an S3 archive store from the default AWS configuration.
func New(ctx context.Context, bucket, rootPrefix string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewStore(s3.NewFromConfig(cfg), bucket, rootPrefix), nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open opens an archive for sequential reading.
func (s *Store) Open(ctx context.Context, name string) (fieldstore.Archive, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fieldstore.ErrNotFound
		}
		return nil, err
	}
	size := int64(0)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return &s3Archive{body: out.Body, size: size}, nil
}

// Create opens a streaming multipart upload. The object becomes visible
// when Close returns.
func (s *Store) Create(ctx context.Context, name string) (fieldstore.WritableArchive, error) {
	pr, pw := io.Pipe()
	a := &s3WritableArchive{
		pw:   pw,
		done: make(chan error, 1),
	}

	uploader := manager.NewUploader(s.client)
	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(name)),
			Body:   pr,
		})
		_ = pr.CloseWithError(err)
		a.done <- err
	}()
	return a, nil
}

// Put writes an archive in one call.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	return err
}

// Delete removes an archive. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns all archive names with the given prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			name = strings.TrimPrefix(name, "/")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

type s3Archive struct {
	body io.ReadCloser
	size int64
}

func (a *s3Archive) Read(p []byte) (int, error) { return a.body.Read(p) }

func (a *s3Archive) Size() int64 { return a.size }

func (a *s3Archive) Close() error { return a.body.Close() }

type s3WritableArchive struct {
	pw       *io.PipeWriter
	done     chan error
	finished atomic.Bool
}

func (a *s3WritableArchive) Write(p []byte) (int, error) {
	return a.pw.Write(p)
}

func (a *s3WritableArchive) Close() error {
	if !a.finished.CompareAndSwap(false, true) {
		return errors.New("already closed")
	}
	if err := a.pw.Close(); err != nil {
		return err
	}
	return <-a.done
}

func (a *s3WritableArchive) Abort() error {
	if !a.finished.CompareAndSwap(false, true) {
		return nil
	}
	return a.pw.CloseWithError(errors.New("upload aborted"))
}

// Package fieldstore persists encoded field archives by name.
//
// Archives are immutable, written once and read sequentially, which keeps
// the Store contract small: atomic Put, streaming Create, sequential Open.
// Implementations cover the local filesystem (mmap-backed reads), memory
// (tests and ephemeral pipelines), S3 and MinIO; ThrottledStore adds byte
// rate and concurrency limits on top of any of them.
package fieldstore

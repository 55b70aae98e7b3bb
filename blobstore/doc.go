// Package blobstore abstracts where mixture snapshots live.
//
// The Store interface is deliberately whole-object: snapshots are immutable,
// written once, and read back once, so Put/Get over byte slices beats a
// seekable reader abstraction here.
//
// Implementations:
//   - MemoryStore: tests and ephemeral runs
//   - LocalStore: local file system with atomic rename writes
//   - s3.Store: Amazon S3 (aws-sdk-go-v2)
//   - minio.Store: MinIO and other S3-compatible object stores
package blobstore

// Package storage defines the object storage client used for product images.
// Implementations exist for any S3-compatible provider (MinIO, AWS S3),
// Google Cloud Storage and a local directory for development.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectExists is returned when a write targets a key that is already taken.
var ErrObjectExists = errors.New("object already exists")

// Object is the write confirmation returned by the store.
type Object struct {
	// Key is the object key within the bucket, as requested.
	Key string
	// FullPath is the bucket-qualified path as reported by the backend,
	// e.g. "product-images/products/3f0c….png". It is path-safe.
	FullPath string
	// Size is the number of bytes stored.
	Size int64
}

// ObjectStore writes and removes objects addressed by key.
type ObjectStore interface {
	// Write streams r to key. size is the exact byte count, or -1 if unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
	// Delete removes the object at key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

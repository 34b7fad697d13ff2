package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// DiskStore writes objects below baseDir/bucket on the local filesystem.
// FullPath has the same bucket-qualified shape as the cloud backends, so
// baseDir can be served as-is by a file server.
type DiskStore struct {
	baseDir string
	bucket  string
}

// NewDiskStore creates a DiskStore. The bucket directory is created if it
// does not already exist.
func NewDiskStore(baseDir, bucket string) (*DiskStore, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to resolve absolute path for %q: %w", baseDir, err)
	}
	if err := os.MkdirAll(filepath.Join(abs, bucket), 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create local bucket directory: %w", err)
	}
	return &DiskStore{baseDir: abs, bucket: bucket}, nil
}

// Root is the directory holding every bucket.
func (s *DiskStore) Root() string { return s.baseDir }

// Write creates baseDir/bucket/key exclusively; an existing file is never replaced.
func (s *DiskStore) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) (*Object, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" {
		return nil, fmt.Errorf("storage: invalid key %q", key)
	}

	dest := filepath.Join(s.baseDir, s.bucket, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create directory for %q: %w", key, err)
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("storage: %q: %w", key, ErrObjectExists)
		}
		return nil, fmt.Errorf("storage: failed to create file %q: %w", dest, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return nil, fmt.Errorf("storage: failed to write file %q: %w", dest, err)
	}

	return &Object{Key: clean, FullPath: s.bucket + "/" + clean, Size: n}, nil
}

// Delete removes baseDir/bucket/key.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	clean := path.Clean("/" + key)[1:]
	err := os.Remove(filepath.Join(s.baseDir, s.bucket, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

var _ ObjectStore = (*DiskStore)(nil)

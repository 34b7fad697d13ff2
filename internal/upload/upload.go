// Package upload stores user-supplied files under unique keys and hands back
// the public URL of each stored object.
package upload

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/tradepost/web/internal/storage"
)

// File is a single file to store. Name is consulted only for its extension.
type File struct {
	Name        string
	Content     io.Reader
	Size        int64
	ContentType string
}

// StorageWriteError reports a failed write to the object store.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("store %q: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// Service writes files to an object store and builds their public URLs.
type Service struct {
	store      storage.ObjectStore
	publicBase string
	newID      func() string
}

// NewService creates a Service. publicBase is the URL prefix the store's
// confirmed object path is appended to.
func NewService(store storage.ObjectStore, publicBase string) *Service {
	return &Service{
		store:      store,
		publicBase: strings.TrimRight(publicBase, "/"),
		newID:      func() string { return uuid.NewString() },
	}
}

// Upload stores file under directory/<uuid>.<ext> and returns its public URL.
// Exactly one object is created per successful call. Failures are returned as
// *StorageWriteError and are not retried.
func (s *Service) Upload(ctx context.Context, file File, directory string) (string, error) {
	path := ObjectPath(directory, s.newID(), file.Name)

	obj, err := s.store.Write(ctx, path, file.Content, file.Size, file.ContentType)
	if err != nil {
		return "", &StorageWriteError{Path: path, Err: err}
	}

	return s.publicBase + "/" + strings.TrimLeft(obj.FullPath, "/"), nil
}

// ObjectPath joins directory, id and the extension of name. The extension is
// whatever follows the last "." in name; names without one get no suffix.
func ObjectPath(directory, id, name string) string {
	p := id
	if i := strings.LastIndex(name, "."); i >= 0 {
		p += "." + name[i+1:]
	}
	if directory = strings.Trim(directory, "/"); directory != "" {
		p = directory + "/" + p
	}
	return p
}

package upload

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Uploader stores one file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file File, directory string) (string, error)
}

// UploadAll uploads every file concurrently and waits for all of them.
// URLs are returned in the order of files, regardless of completion order.
// If any upload fails the first error is returned and no URLs are; the
// remaining uploads see a cancelled context.
func UploadAll(ctx context.Context, u Uploader, files []File, directory string) ([]string, error) {
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			url, err := u.Upload(gctx, f, directory)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("object not found")

// Store is the blob-storage interface used by the document catalog: objects
// are keyed by bucket + path. Upload returns the stored key relative to the
// bucket, usable with Download and Delete under the same bucket.
type Store interface {
	Upload(ctx context.Context, bucket, path string, r io.Reader) (string, error)
	Download(ctx context.Context, bucket, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, path string) error
}

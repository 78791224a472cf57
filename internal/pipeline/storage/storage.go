package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned (wrapped) when a key does not exist.
var ErrNotFound = errors.New("object not found")

// Storage moves clips and renders between the blob store and the worker.
type Storage interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader) error
	// Download returns the object body; the caller closes it.
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

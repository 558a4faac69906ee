// Package storage provides Target implementations for delivering processed
// output and fetching source bytes.
package storage

import (
	"context"
	"io"
)

// Key addresses an object in a Target. Bucket may be empty for targets
// that have a single namespace.
type Key struct {
	Bucket string
	Path   string
}

// Target reads and writes image bytes by key.
type Target interface {
	Put(ctx context.Context, key Key, r io.Reader, meta map[string]string) error
	Get(ctx context.Context, key Key) (io.ReadCloser, error)
	Delete(ctx context.Context, key Key) error
	Exists(ctx context.Context, key Key) (bool, error)
}

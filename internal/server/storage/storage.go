// Package storage abstracts the blob backends the vault can keep chunk
// and thumbnail data in: a local media directory or an S3-compatible
// object store.
package storage

import (
	"context"
	"io"
)

// BlobStore is keyed binary storage. Keys are slash-separated relative
// paths such as "chunks/<hash>/<uuid>".
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

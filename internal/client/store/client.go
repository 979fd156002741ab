// Package store is the upload client's view of the MediaVault store: a
// dedup check, an idempotent chunk-accept call and an idempotent finalize.
package store

import (
	"context"
	"errors"

	"github.com/akarpov/mediavault/internal/api"
)

// ErrRejected reports a response the store delivered but marked as failed.
// The pipeline treats it exactly like a transport error.
var ErrRejected = errors.New("request rejected by store")

// ChunkUpload is one chunk transfer attempt.
type ChunkUpload struct {
	FileHash    string
	FileName    string
	ChunkUUID   string
	Index       int
	TotalChunks int
	Data        []byte
}

// Client talks to the store endpoints. Implementations must be safe for
// concurrent use: one client is shared by every task pipeline in a batch.
type Client interface {
	// CheckExists reports whether content with the given hash is stored.
	CheckExists(ctx context.Context, hash string) (bool, error)

	// UploadChunk submits one chunk. Re-submitting the same (hash, index)
	// is idempotent on the store side.
	UploadChunk(ctx context.Context, chunk ChunkUpload) error

	// Merge finalizes the artifact from an ordered chunk manifest.
	Merge(ctx context.Context, manifest api.MergeRequest) (*api.MergeResult, error)
}

// Sentinel errors shared between the client pipeline and the store server.
// Callers should match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Upload precondition errors, reported before any network activity.
	ErrEmptyFile = errors.New("file is empty")

	// Queue errors.
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskNotRemovable = errors.New("task has left the waiting state")

	// Finalize/merge errors.
	ErrChunkMissing = errors.New("chunk missing")
	ErrSizeMismatch = errors.New("assembled size mismatch")
	ErrHashMismatch = errors.New("assembled hash mismatch")

	// Thumbnail errors. ErrNoThumbnail is informational: the upload
	// proceeds without a preview.
	ErrNoThumbnail      = errors.New("no thumbnail produced")
	ErrUnsupportedMedia = errors.New("not an image or video")
)

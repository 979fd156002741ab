// Package common contains shared constants and sentinel errors used across
// MediaVault components.
package common

import "time"

// Upload pipeline parameters. ChunkSize and HashWindowSize are independent:
// the content hash must not depend on how the transfer later slices the file.
const (
	// ChunkSize is the fixed size of every transfer chunk except the last.
	ChunkSize = 5 * 1024 * 1024

	// HashWindowSize is the read-window size used while streaming a file
	// through the content hasher.
	HashWindowSize = 2 * 1024 * 1024

	// UploadBatchWidth is how many task pipelines run concurrently. The
	// whole batch drains before the next one starts.
	UploadBatchWidth = 3

	// ChunkMaxAttempts is the total number of tries for one chunk transfer.
	ChunkMaxAttempts = 3

	// ChunkRetryStep is the per-attempt delay increment: attempt n waits
	// n * ChunkRetryStep before the next try.
	ChunkRetryStep = time.Second

	// ChunkProgressShare is the portion of task progress covered by chunk
	// transfer; the remaining share belongs to the finalize call.
	ChunkProgressShare = 90
)

// Thumbnail parameters, shared by the image and video paths.
const (
	// ThumbnailMaxSide caps the longer side of a generated thumbnail.
	ThumbnailMaxSide = 300

	// ThumbnailJPEGQuality is the re-encode quality for thumbnails.
	ThumbnailJPEGQuality = 85

	// VideoThumbnailTimeout bounds the whole video frame-capture path.
	VideoThumbnailTimeout = 10 * time.Second

	// VideoSeekOffset is how far into a video the captured frame sits,
	// clamped to the video duration.
	VideoSeekOffset = time.Second
)

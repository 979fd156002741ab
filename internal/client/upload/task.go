// Package upload owns the client upload pipeline: the task queue, the
// per-task state machine, chunked transfer with retry, and finalize.
package upload

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/common"
)

// Status is the lifecycle state of an upload task.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
	StatusSkipped   Status = "skipped"
)

// Terminal reports whether a task in this status will never transition
// again without an explicit user re-enqueue.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusSkipped
}

// Metadata is the user-supplied description attached to an upload.
type Metadata struct {
	Album             string
	Subject           string
	Author            string
	Level             string
	CategoryIDs       []int64
	TagIDs            []int64
	Remark            string
	GenerateThumbnail bool
}

// Task is one queued file. All fields are owned by the Manager; external
// readers only ever see TaskView snapshots.
type Task struct {
	id       string
	path     string
	name     string
	size     int64
	total    int
	meta     Metadata
	hash     string
	weakHash bool
	chunks   []api.ChunkRef
	status   Status
	progress int
	err      error
}

// setProgress raises progress to p. Progress is monotonic within a task's
// lifetime; a lower value is ignored.
func (t *Task) setProgress(p int) {
	if p > t.progress {
		t.progress = p
	}
}

// chunkProgress is the progress value after the chunk with the given
// 0-based index has been acknowledged. The final share of progress is
// reserved for the finalize step.
func chunkProgress(index, total int) int {
	return int(math.Round(float64(index+1) / float64(total) * common.ChunkProgressShare))
}

// TaskView is an immutable snapshot of a task for display and assertions.
type TaskView struct {
	ID          string
	Path        string
	Name        string
	Size        int64
	Hash        string
	WeakHash    bool
	TotalChunks int
	AckedChunks int
	Status      Status
	Progress    int
	Err         error
	Meta        Metadata
}

func (t *Task) view() TaskView {
	return TaskView{
		ID:          t.id,
		Path:        t.path,
		Name:        t.name,
		Size:        t.size,
		Hash:        t.hash,
		WeakHash:    t.weakHash,
		TotalChunks: t.total,
		AckedChunks: len(t.chunks),
		Status:      t.status,
		Progress:    t.progress,
		Err:         t.err,
		Meta:        t.meta,
	}
}

// PathMetadata derives album and subject from a relative path inside an
// enqueued directory tree: the first segment names the album, the second
// the subject, deeper segments are ignored. A bare filename yields nothing.
func PathMetadata(rel string) (album, subject string) {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	if len(parts) >= 2 {
		album = parts[0]
	}
	if len(parts) >= 3 {
		subject = parts[1]
	}
	return album, subject
}

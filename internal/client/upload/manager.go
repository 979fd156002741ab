package upload

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/client/store"
	"github.com/akarpov/mediavault/internal/common"
	"github.com/akarpov/mediavault/internal/hashx"
	"github.com/akarpov/mediavault/internal/logging"
)

// Thumbnailer produces a preview for a media file. Any error means "no
// thumbnail"; it never fails the upload.
type Thumbnailer interface {
	Generate(ctx context.Context, path string) ([]byte, error)
}

// Recorder persists a record of each finished task. Failures are logged
// and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, rec HistoryRecord) error
}

// HistoryRecord describes one finished upload attempt.
type HistoryRecord struct {
	TaskID     string
	Name       string
	Hash       string
	Size       int64
	Status     string
	FileCode   string
	FinishedAt time.Time
}

// Stats are aggregate queue counters, recomputed from the queue on demand
// rather than maintained separately.
type Stats struct {
	Total     int
	Waiting   int
	Uploading int
	Success   int
	Error     int
	Skipped   int
}

// Manager owns the upload queue and is the only code that mutates tasks.
// One mutex guards the queue and every task field; store calls and file
// reads happen outside the lock.
type Manager struct {
	mu    sync.Mutex
	tasks []*Task

	store   store.Client
	thumbs  Thumbnailer
	history Recorder
	log     logging.Logger

	chunkSize   int64
	batchWidth  int
	maxAttempts int
	retryStep   time.Duration
}

// NewManager builds a queue manager around a store client. Thumbnailer and
// Recorder are optional.
func NewManager(st store.Client, thumbs Thumbnailer, history Recorder, log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Manager{
		store:       st,
		thumbs:      thumbs,
		history:     history,
		log:         log,
		chunkSize:   common.ChunkSize,
		batchWidth:  common.UploadBatchWidth,
		maxAttempts: common.ChunkMaxAttempts,
		retryStep:   common.ChunkRetryStep,
	}
}

// Enqueue admits the file at path into the queue as a waiting task.
// Zero-byte files fail eligibility before any network activity.
func (m *Manager) Enqueue(path string, meta Metadata) (TaskView, error) {
	info, err := os.Stat(path)
	if err != nil {
		return TaskView{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return TaskView{}, fmt.Errorf("%s: is a directory, use EnqueueDir", path)
	}
	if info.Size() == 0 {
		return TaskView{}, fmt.Errorf("%s: %w", path, common.ErrEmptyFile)
	}

	t := &Task{
		id:     uuid.NewString(),
		path:   path,
		name:   filepath.Base(path),
		size:   info.Size(),
		total:  int((info.Size() + m.chunkSize - 1) / m.chunkSize),
		meta:   meta,
		status: StatusWaiting,
	}

	m.mu.Lock()
	m.tasks = append(m.tasks, t)
	v := t.view()
	m.mu.Unlock()

	m.log.Debug(context.Background(), "task enqueued", "task", t.id, "name", t.name, "size", t.size)
	return v, nil
}

// EnqueueDir walks a directory tree and enqueues every regular non-empty
// file, deriving album/subject metadata from the path relative to root
// unless meta already carries them. Empty files are skipped, not errors.
func (m *Manager) EnqueueDir(root string, meta Metadata) ([]TaskView, error) {
	var views []TaskView
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}

		taskMeta := meta
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			album, subject := PathMetadata(rel)
			if taskMeta.Album == "" {
				taskMeta.Album = album
			}
			if taskMeta.Subject == "" {
				taskMeta.Subject = subject
			}
		}

		v, err := m.Enqueue(path, taskMeta)
		if err != nil {
			return err
		}
		views = append(views, v)
		return nil
	})
	if err != nil {
		return views, fmt.Errorf("walk %s: %w", root, err)
	}
	return views, nil
}

// Remove drops a waiting task from the queue. Tasks that have left the
// waiting state cannot be removed: in-flight cancellation is deliberately
// unsupported.
func (m *Manager) Remove(taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.tasks {
		if t.id != taskID {
			continue
		}
		if t.status != StatusWaiting {
			return fmt.Errorf("task %s (%s): %w", t.id, t.status, common.ErrTaskNotRemovable)
		}
		m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
		return nil
	}
	return common.ErrTaskNotFound
}

// Clear empties the queue. Only allowed while nothing is uploading.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.status == StatusUploading {
			return fmt.Errorf("task %s: %w", t.id, common.ErrTaskNotRemovable)
		}
	}
	m.tasks = nil
	return nil
}

// Tasks returns snapshots of the queue in insertion order.
func (m *Manager) Tasks() []TaskView {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]TaskView, 0, len(m.tasks))
	for _, t := range m.tasks {
		views = append(views, t.view())
	}
	return views
}

// Stats recomputes the aggregate counters from the queue.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{Total: len(m.tasks)}
	for _, t := range m.tasks {
		switch t.status {
		case StatusWaiting:
			s.Waiting++
		case StatusUploading:
			s.Uploading++
		case StatusSuccess:
			s.Success++
		case StatusError:
			s.Error++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// StartAll drives every waiting task to a terminal state in scatter-gather
// batches: up to batchWidth pipelines run concurrently and the whole batch
// drains before the next one starts. A failing task never aborts its batch
// siblings.
func (m *Manager) StartAll(ctx context.Context) Stats {
	waiting := m.collectWaiting()

	for start := 0; start < len(waiting); start += m.batchWidth {
		end := start + m.batchWidth
		if end > len(waiting) {
			end = len(waiting)
		}

		var wg sync.WaitGroup
		for _, t := range waiting[start:end] {
			wg.Add(1)
			go func(t *Task) {
				defer wg.Done()
				m.runTask(ctx, t)
			}(t)
		}
		wg.Wait()
	}

	return m.Stats()
}

func (m *Manager) collectWaiting() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	var waiting []*Task
	for _, t := range m.tasks {
		if t.status == StatusWaiting {
			waiting = append(waiting, t)
		}
	}
	return waiting
}

// runTask is one task pipeline: hash, dedup check, chunk transfer,
// thumbnail (parallel, best-effort), finalize.
func (m *Manager) runTask(ctx context.Context, t *Task) {
	if !m.transition(t, StatusWaiting, StatusUploading) {
		return
	}

	path, name, meta := m.taskInput(t)
	log := m.log.With("task", t.id, "name", name)

	res, err := hashx.ComputeFile(path)
	if err != nil {
		m.fail(ctx, t, fmt.Errorf("hash: %w", err))
		return
	}
	if res.Weak {
		log.Warn(ctx, "content hash degraded to metadata fallback", "hash", res.Hash)
	}
	m.setHash(t, res)

	exists, err := m.store.CheckExists(ctx, res.Hash)
	if err != nil {
		// Dedup fails open: a false negative only costs transfer.
		log.Warn(ctx, "dedup check failed, proceeding with upload", "err", err)
		exists = false
	}
	if exists {
		log.Info(ctx, "content already stored, skipping transfer", "hash", res.Hash)
		m.finish(ctx, t, StatusSkipped, nil)
		return
	}

	thumbCh := make(chan []byte, 1)
	if meta.GenerateThumbnail && m.thumbs != nil {
		go func() {
			data, thumbErr := m.thumbs.Generate(ctx, path)
			if thumbErr != nil {
				log.Warn(ctx, "thumbnail generation failed", "err", thumbErr)
				data = nil
			}
			thumbCh <- data
		}()
	} else {
		thumbCh <- nil
	}

	if err := m.uploadChunks(ctx, t, log); err != nil {
		<-thumbCh
		m.fail(ctx, t, err)
		return
	}

	thumb := <-thumbCh

	result, err := m.store.Merge(ctx, m.buildManifest(t, thumb))
	if err != nil {
		// All chunks transferred but finalize failed: the task errors and
		// the chunks stay server-side for the store to reconcile.
		m.fail(ctx, t, fmt.Errorf("finalize: %w", err))
		return
	}

	log.Info(ctx, "upload finalized", "code", result.FileCode, "deduplicated", result.Exists)
	m.finish(ctx, t, StatusSuccess, result)
}

func (m *Manager) buildManifest(t *Task, thumb []byte) api.MergeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	chunks := make([]api.ChunkRef, len(t.chunks))
	copy(chunks, t.chunks)

	return api.MergeRequest{
		FileHash:          t.hash,
		FileName:          t.name,
		FileSize:          t.size,
		Chunks:            chunks,
		Album:             t.meta.Album,
		Subject:           t.meta.Subject,
		Author:            t.meta.Author,
		Level:             t.meta.Level,
		CategoryIDs:       t.meta.CategoryIDs,
		TagIDs:            t.meta.TagIDs,
		Remark:            t.meta.Remark,
		GenerateThumbnail: t.meta.GenerateThumbnail,
		Thumbnail:         thumb,
	}
}

func (m *Manager) taskInput(t *Task) (path, name string, meta Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return t.path, t.name, t.meta
}

func (m *Manager) transition(t *Task, from, to Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.status != from {
		return false
	}
	t.status = to
	return true
}

func (m *Manager) setHash(t *Task, res hashx.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.hash = res.Hash
	t.weakHash = res.Weak
}

func (m *Manager) ackChunk(t *Task, ref api.ChunkRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.chunks = append(t.chunks, ref)
	t.setProgress(chunkProgress(ref.Index, t.total))
}

func (m *Manager) fail(ctx context.Context, t *Task, err error) {
	m.mu.Lock()
	t.status = StatusError
	t.err = err
	m.mu.Unlock()

	m.log.Error(ctx, "task failed", "task", t.id, "err", err)
	m.record(ctx, t, nil)
}

func (m *Manager) finish(ctx context.Context, t *Task, status Status, result *api.MergeResult) {
	m.mu.Lock()
	t.status = status
	if status == StatusSuccess {
		t.setProgress(100)
	}
	m.mu.Unlock()

	m.record(ctx, t, result)
}

func (m *Manager) record(ctx context.Context, t *Task, result *api.MergeResult) {
	if m.history == nil {
		return
	}

	m.mu.Lock()
	rec := HistoryRecord{
		TaskID:     t.id,
		Name:       t.name,
		Hash:       t.hash,
		Size:       t.size,
		Status:     string(t.status),
		FinishedAt: time.Now(),
	}
	m.mu.Unlock()
	if result != nil {
		rec.FileCode = result.FileCode
	}

	if err := m.history.Record(ctx, rec); err != nil {
		m.log.Warn(ctx, "recording upload history failed", "task", rec.TaskID, "err", err)
	}
}

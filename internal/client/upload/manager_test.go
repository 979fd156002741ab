package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/client/store"
	"github.com/akarpov/mediavault/internal/common"
	"github.com/akarpov/mediavault/internal/hashx"
)

// fakeStore records every call and can be programmed to fail.
type fakeStore struct {
	mu sync.Mutex

	exists   map[string]bool
	checkErr error

	chunkCalls []store.ChunkUpload
	chunkFails map[int]int // index -> number of failures to inject
	chunkDelay time.Duration

	mergeCalls []api.MergeRequest
	mergeErr   error

	inFlight    int32
	maxInFlight int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{exists: map[string]bool{}, chunkFails: map[int]int{}}
}

func (f *fakeStore) CheckExists(ctx context.Context, hash string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists[hash], nil
}

func (f *fakeStore) UploadChunk(ctx context.Context, chunk store.ChunkUpload) error {
	cur := atomic.AddInt32(&f.inFlight, 1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	if f.chunkDelay > 0 {
		time.Sleep(f.chunkDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Copy the data: the caller reuses its read buffer between chunks.
	c := chunk
	c.Data = append([]byte(nil), chunk.Data...)
	f.chunkCalls = append(f.chunkCalls, c)

	if n := f.chunkFails[chunk.Index]; n > 0 {
		f.chunkFails[chunk.Index] = n - 1
		return errors.New("injected chunk failure")
	}
	return nil
}

func (f *fakeStore) Merge(ctx context.Context, manifest api.MergeRequest) (*api.MergeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergeCalls = append(f.mergeCalls, manifest)
	if f.mergeErr != nil {
		return nil, f.mergeErr
	}
	return &api.MergeResult{FileID: int64(len(f.mergeCalls)), FileCode: "code-1"}, nil
}

func (f *fakeStore) chunkCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunkCalls)
}

func (f *fakeStore) mergeCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mergeCalls)
}

// newTestManager returns a manager with a tiny chunk size and instant
// retries so tests can exercise multi-chunk files with a few bytes.
func newTestManager(st store.Client) *Manager {
	m := NewManager(st, nil, nil, nil)
	m.chunkSize = 5
	m.retryStep = time.Millisecond
	return m
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestEnqueue_ZeroByteRejected(t *testing.T) {
	st := newFakeStore()
	m := newTestManager(st)

	path := writeTemp(t, "empty.bin", nil)
	_, err := m.Enqueue(path, Metadata{})
	require.ErrorIs(t, err, common.ErrEmptyFile)

	assert.Equal(t, 0, m.Stats().Total)
	m.StartAll(context.Background())
	assert.Equal(t, 0, st.chunkCallCount())
	assert.Equal(t, 0, st.mergeCallCount())
}

func TestStartAll_TwelveBytesThreeChunks(t *testing.T) {
	st := newFakeStore()
	m := newTestManager(st)

	// 12 bytes with a 5-byte chunk size mirrors 12 MiB at 5 MiB.
	path := writeTemp(t, "movie.mp4", []byte("abcdefghijkl"))
	v, err := m.Enqueue(path, Metadata{Album: "demo"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.TotalChunks)
	assert.Equal(t, StatusWaiting, v.Status)

	stats := m.StartAll(context.Background())
	assert.Equal(t, Stats{Total: 1, Success: 1}, stats)

	got := m.Tasks()[0]
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, 3, got.AckedChunks)

	require.Equal(t, 3, st.chunkCallCount())
	sizes := []int{len(st.chunkCalls[0].Data), len(st.chunkCalls[1].Data), len(st.chunkCalls[2].Data)}
	assert.Equal(t, []int{5, 5, 2}, sizes)
	for i, c := range st.chunkCalls {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, 3, c.TotalChunks)
		assert.Equal(t, got.Hash, c.FileHash)
	}

	require.Equal(t, 1, st.mergeCallCount())
	manifest := st.mergeCalls[0]
	assert.Equal(t, got.Hash, manifest.FileHash)
	assert.Equal(t, int64(12), manifest.FileSize)
	assert.Equal(t, "demo", manifest.Album)
	for i, ref := range manifest.Chunks {
		assert.Equal(t, i, ref.Index)
		assert.NotEmpty(t, ref.ChunkUUID)
	}
}

func TestChunkProgress_ReservesFinalShareForFinalize(t *testing.T) {
	assert.Equal(t, 30, chunkProgress(0, 3))
	assert.Equal(t, 60, chunkProgress(1, 3))
	assert.Equal(t, 90, chunkProgress(2, 3))
	assert.Equal(t, 90, chunkProgress(0, 1))
}

func TestTotalChunks_FiveMiBChunking(t *testing.T) {
	size := int64(12 * 1024 * 1024)
	total := int((size + common.ChunkSize - 1) / common.ChunkSize)
	assert.Equal(t, 3, total)
}

func TestStartAll_DedupSkips(t *testing.T) {
	st := newFakeStore()
	m := newTestManager(st)

	first := writeTemp(t, "one.jpg", []byte("same content everywhere"))
	_, err := m.Enqueue(first, Metadata{})
	require.NoError(t, err)

	// The store already has this hash.
	st.exists[mustHash(t, first)] = true

	m.StartAll(context.Background())

	got := m.Tasks()[0]
	assert.Equal(t, StatusSkipped, got.Status)
	assert.Equal(t, 0, st.chunkCallCount())
	assert.Equal(t, 0, st.mergeCallCount())
}

func TestStartAll_DedupFailsOpen(t *testing.T) {
	st := newFakeStore()
	st.checkErr = errors.New("store unreachable")
	m := newTestManager(st)

	path := writeTemp(t, "a.bin", []byte("payload"))
	_, err := m.Enqueue(path, Metadata{})
	require.NoError(t, err)

	stats := m.StartAll(context.Background())
	assert.Equal(t, 1, stats.Success)
	assert.Greater(t, st.chunkCallCount(), 0)
}

func TestChunkRetry_ThirdAttemptSucceeds(t *testing.T) {
	st := newFakeStore()
	st.chunkFails[0] = 2 // first two attempts fail, third succeeds
	m := newTestManager(st)

	path := writeTemp(t, "a.bin", []byte("abcdefgh"))
	_, err := m.Enqueue(path, Metadata{})
	require.NoError(t, err)

	stats := m.StartAll(context.Background())
	assert.Equal(t, 1, stats.Success)

	// Chunk 0 was attempted exactly 3 times, chunk 1 once.
	var idx0, idx1 int
	ids := map[string]struct{}{}
	for _, c := range st.chunkCalls {
		switch c.Index {
		case 0:
			idx0++
			ids[c.ChunkUUID] = struct{}{}
		case 1:
			idx1++
		}
	}
	assert.Equal(t, 3, idx0)
	assert.Equal(t, 1, idx1)
	// Every attempt carried a fresh transfer id.
	assert.Len(t, ids, 3)
}

func TestChunkRetry_ExhaustedFailsTask(t *testing.T) {
	st := newFakeStore()
	st.chunkFails[1] = 3 // all attempts for chunk 1 fail
	m := newTestManager(st)

	path := writeTemp(t, "a.bin", []byte("abcdefghijklmnop")) // 4 chunks of 5
	_, err := m.Enqueue(path, Metadata{})
	require.NoError(t, err)

	stats := m.StartAll(context.Background())
	assert.Equal(t, 1, stats.Error)

	got := m.Tasks()[0]
	assert.Equal(t, StatusError, got.Status)
	require.Error(t, got.Err)

	// No chunk beyond the failing one was attempted, finalize never ran.
	for _, c := range st.chunkCalls {
		assert.LessOrEqual(t, c.Index, 1)
	}
	assert.Equal(t, 0, st.mergeCallCount())
	// Progress reflects only the acknowledged chunk 0.
	assert.Equal(t, chunkProgress(0, 4), got.Progress)
}

func TestStartAll_BatchWidthIsBounded(t *testing.T) {
	st := newFakeStore()
	st.chunkDelay = 20 * time.Millisecond
	m := newTestManager(st)

	for i := 0; i < 7; i++ {
		path := writeTemp(t, "f.bin", []byte{byte(i), 1, 2})
		_, err := m.Enqueue(path, Metadata{})
		require.NoError(t, err)
	}

	stats := m.StartAll(context.Background())
	assert.Equal(t, 7, stats.Success)
	assert.LessOrEqual(t, atomic.LoadInt32(&st.maxInFlight), int32(common.UploadBatchWidth))
}

func TestMergeFailure_FailsTaskWithoutCleanup(t *testing.T) {
	st := newFakeStore()
	st.mergeErr = errors.New("finalize rejected")
	m := newTestManager(st)

	path := writeTemp(t, "a.bin", []byte("abcdefghij"))
	_, err := m.Enqueue(path, Metadata{})
	require.NoError(t, err)

	stats := m.StartAll(context.Background())
	assert.Equal(t, 1, stats.Error)

	got := m.Tasks()[0]
	assert.Equal(t, StatusError, got.Status)
	// Chunks stayed acknowledged; progress stopped at the chunk share.
	assert.Equal(t, 2, got.AckedChunks)
	assert.Equal(t, 90, got.Progress)
}

func TestRemove_OnlyWaitingTasks(t *testing.T) {
	st := newFakeStore()
	m := newTestManager(st)

	path := writeTemp(t, "a.bin", []byte("x"))
	v, err := m.Enqueue(path, Metadata{})
	require.NoError(t, err)

	require.NoError(t, m.Remove(v.ID))
	assert.Equal(t, 0, m.Stats().Total)

	v2, err := m.Enqueue(path, Metadata{})
	require.NoError(t, err)
	m.mu.Lock()
	m.tasks[0].status = StatusUploading
	m.mu.Unlock()
	require.ErrorIs(t, m.Remove(v2.ID), common.ErrTaskNotRemovable)

	require.ErrorIs(t, m.Remove("no-such-task"), common.ErrTaskNotFound)
}

func TestStats_RecomputedFromQueue(t *testing.T) {
	st := newFakeStore()
	m := newTestManager(st)

	good := writeTemp(t, "good.bin", []byte("payload-1"))
	bad := writeTemp(t, "bad.bin", []byte("payload-2"))
	dup := writeTemp(t, "dup.bin", []byte("payload-3"))

	_, err := m.Enqueue(good, Metadata{})
	require.NoError(t, err)
	_, err = m.Enqueue(bad, Metadata{})
	require.NoError(t, err)
	_, err = m.Enqueue(dup, Metadata{})
	require.NoError(t, err)

	st.exists[mustHash(t, dup)] = true
	st.chunkFails[0] = 100 // fails every chunk-0 attempt, so non-skipped tasks error out

	stats := m.StartAll(context.Background())
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, stats.Total, stats.Success+stats.Error+stats.Skipped)
}

type fakeThumbnailer struct {
	data []byte
	err  error
}

func (f *fakeThumbnailer) Generate(ctx context.Context, path string) ([]byte, error) {
	return f.data, f.err
}

func TestThumbnail_AttachedToManifest(t *testing.T) {
	st := newFakeStore()
	m := newTestManager(st)
	m.thumbs = &fakeThumbnailer{data: []byte("jpeg-bytes")}

	path := writeTemp(t, "pic.jpg", []byte("image content"))
	_, err := m.Enqueue(path, Metadata{GenerateThumbnail: true})
	require.NoError(t, err)

	m.StartAll(context.Background())
	require.Equal(t, 1, st.mergeCallCount())
	assert.Equal(t, []byte("jpeg-bytes"), st.mergeCalls[0].Thumbnail)
}

func TestThumbnail_FailureIsNonFatal(t *testing.T) {
	st := newFakeStore()
	m := newTestManager(st)
	m.thumbs = &fakeThumbnailer{err: errors.New("decode failed")}

	path := writeTemp(t, "pic.jpg", []byte("image content"))
	_, err := m.Enqueue(path, Metadata{GenerateThumbnail: true})
	require.NoError(t, err)

	stats := m.StartAll(context.Background())
	assert.Equal(t, 1, stats.Success)
	require.Equal(t, 1, st.mergeCallCount())
	assert.Nil(t, st.mergeCalls[0].Thumbnail)
}

type memRecorder struct {
	mu   sync.Mutex
	recs []HistoryRecord
}

func (r *memRecorder) Record(ctx context.Context, rec HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func TestHistory_RecordsTerminalStates(t *testing.T) {
	st := newFakeStore()
	rec := &memRecorder{}
	m := newTestManager(st)
	m.history = rec

	path := writeTemp(t, "a.bin", []byte("payload"))
	_, err := m.Enqueue(path, Metadata{})
	require.NoError(t, err)

	m.StartAll(context.Background())
	require.Len(t, rec.recs, 1)
	assert.Equal(t, string(StatusSuccess), rec.recs[0].Status)
	assert.Equal(t, "code-1", rec.recs[0].FileCode)
}

func TestEnqueueDir_DerivesPathMetadata(t *testing.T) {
	st := newFakeStore()
	m := newTestManager(st)

	root := t.TempDir()
	deep := filepath.Join(root, "holiday", "beach", "day1")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(deep, "img.jpg"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "loose.jpg"), []byte("y"), 0o600))
	// Empty files inside a tree are skipped, not errors.
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.jpg"), nil, 0o600))

	views, err := m.EnqueueDir(root, Metadata{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	byName := map[string]TaskView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.Equal(t, "holiday", byName["img.jpg"].Meta.Album)
	assert.Equal(t, "beach", byName["img.jpg"].Meta.Subject)
	assert.Equal(t, "", byName["loose.jpg"].Meta.Album)
}

// mustHash computes the content hash the pipeline will use for a file.
func mustHash(t *testing.T, path string) string {
	t.Helper()
	res, err := hashx.ComputeFile(path)
	require.NoError(t, err)
	require.False(t, res.Weak)
	return res.Hash
}

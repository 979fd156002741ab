package upload

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/client/store"
	"github.com/akarpov/mediavault/internal/common"
	"github.com/akarpov/mediavault/internal/logging"
	"github.com/akarpov/mediavault/internal/retry"
)

// uploadChunks transfers the task's file chunk by chunk, strictly in index
// order. Each transfer attempt carries a fresh chunk UUID so the store can
// tell retries of the same (hash, index) apart. A chunk that exhausts its
// retries fails the task; later chunks are never attempted.
func (m *Manager) uploadChunks(ctx context.Context, t *Task, log logging.Logger) error {
	path, name, _ := m.taskInput(t)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m.mu.Lock()
	hash := t.hash
	size := t.size
	total := t.total
	m.mu.Unlock()

	if size == 0 || total == 0 {
		return fmt.Errorf("%s: %w", path, common.ErrEmptyFile)
	}

	buf := make([]byte, m.chunkSize)
	for index := 0; index < total; index++ {
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return fmt.Errorf("read chunk %d: %w", index, err)
		}
		if n == 0 {
			return fmt.Errorf("read chunk %d: %w", index, io.ErrUnexpectedEOF)
		}

		var chunkID string
		err = retry.Do(ctx, m.maxAttempts, retry.Linear(m.retryStep), func(ctx context.Context) error {
			chunkID = uuid.NewString()
			return m.store.UploadChunk(ctx, store.ChunkUpload{
				FileHash:    hash,
				FileName:    name,
				ChunkUUID:   chunkID,
				Index:       index,
				TotalChunks: total,
				Data:        buf[:n],
			})
		})
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", index, total, err)
		}

		m.ackChunk(t, api.ChunkRef{Index: index, ChunkUUID: chunkID})
		log.Debug(ctx, "chunk acknowledged", "index", index, "of", total, "bytes", n)
	}

	return nil
}

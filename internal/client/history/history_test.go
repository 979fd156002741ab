package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpov/mediavault/internal/client/upload"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := upload.HistoryRecord{
		TaskID:     "t1",
		Name:       "a.jpg",
		Hash:       "aaa",
		Size:       1024,
		Status:     "success",
		FileCode:   "code-a",
		FinishedAt: time.Now().Add(-time.Minute),
	}
	second := upload.HistoryRecord{
		TaskID:     "t2",
		Name:       "b.mp4",
		Hash:       "bbb",
		Size:       2048,
		Status:     "error",
		FinishedAt: time.Now(),
	}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	got, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "t2", got[0].TaskID)
	assert.Equal(t, "error", got[0].Status)
	assert.Equal(t, "", got[0].FileCode)
	assert.Equal(t, "t1", got[1].TaskID)
	assert.Equal(t, "code-a", got[1].FileCode)
	assert.Equal(t, int64(1024), got[1].Size)
}

func TestList_RespectsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, upload.HistoryRecord{
			TaskID:     "t",
			Name:       "f",
			Hash:       "h",
			Status:     "success",
			FinishedAt: time.Now(),
		}))
	}

	got, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

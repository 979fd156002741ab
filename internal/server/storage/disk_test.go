package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpov/mediavault/internal/common"
)

func TestDisk_PutGetRoundTrip(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "chunks/abc/uuid-1", strings.NewReader("chunk payload")))

	rc, err := d.Get(ctx, "chunks/abc/uuid-1")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "chunk payload", string(data))
}

func TestDisk_PutOverwrites(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "k", strings.NewReader("old")))
	require.NoError(t, d.Put(ctx, "k", strings.NewReader("new")))

	rc, err := d.Get(ctx, "k")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "new", string(data))
}

func TestDisk_GetMissing(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	_, err = d.Get(context.Background(), "chunks/nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDisk_Exists(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := d.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Put(ctx, "k", strings.NewReader("x")))
	ok, err = d.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDisk_DeleteIsIdempotent(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "k", strings.NewReader("x")))
	require.NoError(t, d.Delete(ctx, "k"))
	require.NoError(t, d.Delete(ctx, "k"))

	ok, err := d.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisk_RejectsEscapingKeys(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../outside", "/abs", "..", "a/../../b"} {
		assert.Error(t, d.Put(ctx, key, strings.NewReader("x")), key)
	}
}

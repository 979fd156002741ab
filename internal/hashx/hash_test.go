package hashx

import (
	"bytes"
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_WindowSizeDoesNotChangeDigest(t *testing.T) {
	data := make([]byte, 3*1024*1024+17)
	_, err := rand.Read(data)
	require.NoError(t, err)

	want := fmt.Sprintf("%x", md5.Sum(data))

	for _, window := range []int{1, 7, 4096, 2 * 1024 * 1024, len(data) + 1} {
		got, err := Sum(bytes.NewReader(data), window)
		require.NoError(t, err)
		assert.Equal(t, want, got, "window=%d", window)
	}
}

func TestSum_EmptyReader(t *testing.T) {
	got, err := Sum(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%x", md5.Sum(nil)), got)
}

func TestComputeFile_MatchesDirectDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	data := bytes.Repeat([]byte("mediavault"), 100000)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	res, err := ComputeFile(path)
	require.NoError(t, err)
	assert.False(t, res.Weak)
	assert.Equal(t, fmt.Sprintf("%x", md5.Sum(data)), res.Hash)
}

func TestComputeFile_SameContentDifferentName(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(a, []byte("identical bytes"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("identical bytes"), 0o600))

	ra, err := ComputeFile(a)
	require.NoError(t, err)
	rb, err := ComputeFile(b)
	require.NoError(t, err)
	assert.Equal(t, ra.Hash, rb.Hash)
}

func TestComputeFile_MissingFile(t *testing.T) {
	_, err := ComputeFile(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

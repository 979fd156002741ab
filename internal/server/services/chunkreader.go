package services

import (
	"context"
	"io"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/server/storage"
)

// chunkReader streams a file's chunks in index order, opening each blob
// only when the previous one is exhausted.
type chunkReader struct {
	ctx    context.Context
	blobs  storage.BlobStore
	hash   string
	chunks []api.ChunkRef

	next    int
	current io.ReadCloser
}

func newChunkReader(ctx context.Context, blobs storage.BlobStore, hash string, chunks []api.ChunkRef) *chunkReader {
	return &chunkReader{ctx: ctx, blobs: blobs, hash: hash, chunks: chunks}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for {
		if r.current == nil {
			if r.next >= len(r.chunks) {
				return 0, io.EOF
			}
			rc, err := r.blobs.Get(r.ctx, chunkKey(r.hash, r.chunks[r.next].ChunkUUID))
			if err != nil {
				return 0, err
			}
			r.current = rc
			r.next++
		}

		n, err := r.current.Read(p)
		if err == io.EOF {
			if closeErr := r.current.Close(); closeErr != nil {
				return n, closeErr
			}
			r.current = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (r *chunkReader) Close() error {
	if r.current != nil {
		err := r.current.Close()
		r.current = nil
		return err
	}
	return nil
}

// Package services implements the store-side upload semantics: chunk
// intake, manifest verification and merge, dedup lookup, and content
// streaming.
package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/common"
	"github.com/akarpov/mediavault/internal/logging"
	"github.com/akarpov/mediavault/internal/server/repositories/files"
	"github.com/akarpov/mediavault/internal/server/storage"
)

// Service owns the upload flow on the store side.
type Service struct {
	repo  files.Repository
	blobs storage.BlobStore
	log   logging.Logger
}

func NewService(repo files.Repository, blobs storage.BlobStore, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{repo: repo, blobs: blobs, log: log}
}

func chunkKey(hash, chunkUUID string) string {
	return "chunks/" + hash + "/" + chunkUUID
}

func thumbKey(hash string) string {
	return "thumbs/" + hash + ".jpg"
}

func newFileCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// CheckExists reports whether content with the given hash is already
// stored. A nil ExistingFile means it is not.
func (s *Service) CheckExists(ctx context.Context, hash string) (*api.ExistingFile, error) {
	f, err := s.repo.GetByHash(ctx, hash)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup hash %s: %w", hash, err)
	}
	return &api.ExistingFile{
		FileID:   f.ID,
		FileCode: f.Code,
		FileName: f.Name,
		FileSize: f.Size,
	}, nil
}

// ChunkInput is one incoming chunk transfer.
type ChunkInput struct {
	FileHash    string
	FileName    string
	ChunkUUID   string
	Index       int
	TotalChunks int
	Data        io.Reader
}

// AcceptChunk stores one chunk blob. Accepting the same chunk UUID twice
// overwrites identical bytes, so retried transfers are harmless.
func (s *Service) AcceptChunk(ctx context.Context, in ChunkInput) error {
	if in.FileHash == "" || in.ChunkUUID == "" {
		return fmt.Errorf("chunk transfer missing hash or uuid")
	}
	if in.Index < 0 || in.TotalChunks < 1 || in.Index >= in.TotalChunks {
		return fmt.Errorf("chunk index %d out of range [0, %d)", in.Index, in.TotalChunks)
	}

	if err := s.blobs.Put(ctx, chunkKey(in.FileHash, in.ChunkUUID), in.Data); err != nil {
		return fmt.Errorf("store chunk: %w", err)
	}
	s.log.Debug(ctx, "chunk accepted",
		"hash", in.FileHash, "index", in.Index, "of", in.TotalChunks, "uuid", in.ChunkUUID)
	return nil
}

// Merge verifies the manifest against the stored chunks and records the
// file. When the hash is already stored the call is a no-op and the
// existing record is returned with Exists set.
func (s *Service) Merge(ctx context.Context, req api.MergeRequest) (*api.MergeResult, error) {
	if existing, err := s.repo.GetByHash(ctx, req.FileHash); err == nil {
		s.log.Info(ctx, "merge for already-stored content", "hash", req.FileHash, "code", existing.Code)
		return &api.MergeResult{FileID: existing.ID, FileCode: existing.Code, Exists: true}, nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("lookup hash %s: %w", req.FileHash, err)
	}

	chunks, err := orderedChunks(req.Chunks)
	if err != nil {
		return nil, err
	}

	size, digest, err := s.verifyChunks(ctx, req.FileHash, chunks)
	if err != nil {
		return nil, err
	}
	if size != req.FileSize {
		return nil, fmt.Errorf("got %d bytes, manifest says %d: %w", size, req.FileSize, common.ErrSizeMismatch)
	}
	if !strings.EqualFold(digest, req.FileHash) {
		return nil, fmt.Errorf("assembled hash %s does not match %s: %w", digest, req.FileHash, common.ErrHashMismatch)
	}

	f := &files.File{
		Code:        newFileCode(),
		Name:        req.FileName,
		Hash:        strings.ToLower(req.FileHash),
		Size:        size,
		Status:      files.StatusStored,
		Album:       req.Album,
		Subject:     req.Subject,
		Author:      req.Author,
		Level:       req.Level,
		Remark:      req.Remark,
		CategoryIDs: req.CategoryIDs,
		TagIDs:      req.TagIDs,
		Chunks:      chunks,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("record file: %w", err)
	}

	// The preview is best-effort: a failure here never fails the merge.
	if len(req.Thumbnail) > 0 {
		key := thumbKey(f.Hash)
		if err := s.blobs.Put(ctx, key, bytes.NewReader(req.Thumbnail)); err != nil {
			s.log.Warn(ctx, "storing thumbnail failed", "hash", f.Hash, "err", err)
		} else if err := s.repo.SetThumbnail(ctx, f.ID, key); err != nil {
			s.log.Warn(ctx, "recording thumbnail key failed", "hash", f.Hash, "err", err)
		}
	}

	s.log.Info(ctx, "file merged", "hash", f.Hash, "code", f.Code, "size", f.Size, "chunks", len(chunks))
	return &api.MergeResult{FileID: f.ID, FileCode: f.Code}, nil
}

// orderedChunks sorts the manifest by index and checks that indexes run
// contiguously from zero.
func orderedChunks(refs []api.ChunkRef) ([]api.ChunkRef, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("empty manifest: %w", common.ErrChunkMissing)
	}
	out := make([]api.ChunkRef, len(refs))
	copy(out, refs)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	for i, ref := range out {
		if ref.Index != i {
			return nil, fmt.Errorf("manifest lacks chunk %d: %w", i, common.ErrChunkMissing)
		}
	}
	return out, nil
}

// verifyChunks streams the chunks in index order through an MD5 digest,
// returning the assembled size and hex digest.
func (s *Service) verifyChunks(ctx context.Context, hash string, chunks []api.ChunkRef) (int64, string, error) {
	h := md5.New()
	var size int64

	for _, ref := range chunks {
		rc, err := s.blobs.Get(ctx, chunkKey(hash, ref.ChunkUUID))
		if errors.Is(err, common.ErrorNotFound) {
			return 0, "", fmt.Errorf("chunk %d (%s): %w", ref.Index, ref.ChunkUUID, common.ErrChunkMissing)
		}
		if err != nil {
			return 0, "", fmt.Errorf("read chunk %d: %w", ref.Index, err)
		}
		n, err := io.Copy(h, rc)
		rc.Close()
		if err != nil {
			return 0, "", fmt.Errorf("read chunk %d: %w", ref.Index, err)
		}
		size += n
	}

	return size, hex.EncodeToString(h.Sum(nil)), nil
}

// Content returns the file record and a reader streaming its chunks in
// index order. The caller must close the reader.
func (s *Service) Content(ctx context.Context, code string) (*files.File, io.ReadCloser, error) {
	f, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	return f, newChunkReader(ctx, s.blobs, f.Hash, f.Chunks), nil
}

// Thumbnail returns the stored preview for a file code.
func (s *Service) Thumbnail(ctx context.Context, code string) (io.ReadCloser, error) {
	f, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if f.ThumbnailKey == "" {
		return nil, fmt.Errorf("file %s: %w", code, common.ErrNoThumbnail)
	}
	return s.blobs.Get(ctx, f.ThumbnailKey)
}

// List returns one page of stored files, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (*api.ListPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := s.repo.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	infos := make([]api.ArtifactInfo, 0, len(items))
	for _, f := range items {
		infos = append(infos, api.ArtifactInfo{
			FileID:    f.ID,
			FileCode:  f.Code,
			FileName:  f.Name,
			FileHash:  f.Hash,
			FileSize:  f.Size,
			Type:      mediaType(f.Name),
			Mime:      mime.TypeByExtension(filepath.Ext(f.Name)),
			Album:     f.Album,
			Subject:   f.Subject,
			Author:    f.Author,
			Level:     f.Level,
			CreatedAt: f.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return &api.ListPage{
		Files:      infos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func mediaType(name string) string {
	mt := mime.TypeByExtension(filepath.Ext(name))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return "image"
	case strings.HasPrefix(mt, "video/"):
		return "video"
	case strings.HasPrefix(mt, "audio/"):
		return "audio"
	default:
		return "file"
	}
}

// Package files persists metadata for merged uploads.
package files

import (
	"context"
	"time"

	"github.com/akarpov/mediavault/internal/api"
)

const (
	// StatusStored marks a file whose chunks passed verification.
	StatusStored = "stored"
)

// File is one merged upload.
type File struct {
	ID           int64
	Code         string
	Name         string
	Hash         string
	Size         int64
	Status       string
	Album        string
	Subject      string
	Author       string
	Level        string
	Remark       string
	CategoryIDs  []int64
	TagIDs       []int64
	Chunks       []api.ChunkRef
	ThumbnailKey string
	CreatedAt    time.Time
}

type Repository interface {
	// Create inserts the record and fills ID and CreatedAt.
	Create(ctx context.Context, f *File) error
	// GetByHash returns common.ErrorNotFound when no file has the hash.
	GetByHash(ctx context.Context, hash string) (*File, error)
	// GetByCode returns common.ErrorNotFound when no file has the code.
	GetByCode(ctx context.Context, code string) (*File, error)
	// List returns one page, newest first, plus the total record count.
	List(ctx context.Context, offset, limit int) ([]*File, int, error)
	// SetThumbnail records the blob key of the file's preview.
	SetThumbnail(ctx context.Context, id int64, key string) error
}

package files

import (
	"context"
	"sync"
	"time"

	"github.com/akarpov/mediavault/internal/common"
)

// MemoryRepository is an in-memory Repository used in tests and for
// running the server without a database.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	items  []*File
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) Create(ctx context.Context, f *File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f.ID = r.nextID
	r.nextID++
	f.CreatedAt = time.Now()

	clone := *f
	r.items = append(r.items, &clone)
	return nil
}

func (r *MemoryRepository) GetByHash(ctx context.Context, hash string) (*File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.items {
		if f.Hash == hash {
			clone := *f
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) GetByCode(ctx context.Context, code string) (*File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.items {
		if f.Code == code {
			clone := *f
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) List(ctx context.Context, offset, limit int) ([]*File, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := len(r.items)

	// Newest first.
	var page []*File
	for i := total - 1 - offset; i >= 0 && len(page) < limit; i-- {
		clone := *r.items[i]
		page = append(page, &clone)
	}
	return page, total, nil
}

func (r *MemoryRepository) SetThumbnail(ctx context.Context, id int64, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.items {
		if f.ID == id {
			f.ThumbnailKey = key
			return nil
		}
	}
	return common.ErrorNotFound
}

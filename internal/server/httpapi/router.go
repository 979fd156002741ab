// Package httpapi exposes the store over HTTP: the upload endpoints the
// client drives plus content download and listing.
package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/logging"
	"github.com/akarpov/mediavault/internal/server/repositories/files"
	"github.com/akarpov/mediavault/internal/server/services"
)

// VaultService is the surface the handlers need. *services.Service
// satisfies it; tests use a stub.
type VaultService interface {
	CheckExists(ctx context.Context, hash string) (*api.ExistingFile, error)
	AcceptChunk(ctx context.Context, in services.ChunkInput) error
	Merge(ctx context.Context, req api.MergeRequest) (*api.MergeResult, error)
	Content(ctx context.Context, code string) (*files.File, io.ReadCloser, error)
	Thumbnail(ctx context.Context, code string) (io.ReadCloser, error)
	List(ctx context.Context, page, pageSize int) (*api.ListPage, error)
}

type handler struct {
	svc VaultService
	log logging.Logger
}

// NewRouter builds the HTTP mux for the store API.
func NewRouter(svc VaultService, log logging.Logger) *http.ServeMux {
	if log == nil {
		log = logging.NewNopLogger()
	}
	h := &handler{svc: svc, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+api.PathCheck, h.check)
	mux.HandleFunc("POST "+api.PathChunk, h.chunk)
	mux.HandleFunc("POST "+api.PathMerge, h.merge)
	mux.HandleFunc("GET "+api.PathContent, h.content)
	mux.HandleFunc("GET "+api.PathThumbnail, h.thumbnail)
	mux.HandleFunc("GET "+api.PathList, h.list)
	return mux
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/common"
	"github.com/akarpov/mediavault/internal/server/services"
)

// Form fields stay in memory up to this limit; larger chunk bodies
// spill to temp files.
const maxMultipartMemory = 8 << 20

func (h *handler) check(w http.ResponseWriter, r *http.Request) {
	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.FileHash == "" {
		h.fail(w, http.StatusBadRequest, errors.New("file_hash is required"))
		return
	}

	existing, err := h.svc.CheckExists(r.Context(), req.FileHash)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	resp := api.CheckResponse{
		Envelope: api.Envelope{Success: true},
		Exists:   existing != nil,
		Data:     existing,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) chunk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	file, _, err := r.FormFile(api.FieldChunk)
	if err != nil {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("chunk part missing: %w", err))
		return
	}
	defer file.Close()

	index, err := strconv.Atoi(r.FormValue(api.FieldChunkIndex))
	if err != nil {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("bad chunk_index: %w", err))
		return
	}
	total, err := strconv.Atoi(r.FormValue(api.FieldTotalChunks))
	if err != nil {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("bad total_chunks: %w", err))
		return
	}

	in := services.ChunkInput{
		FileHash:    r.FormValue(api.FieldFileHash),
		FileName:    r.FormValue(api.FieldFileName),
		ChunkUUID:   r.FormValue(api.FieldChunkUUID),
		Index:       index,
		TotalChunks: total,
		Data:        file,
	}
	if err := h.svc.AcceptChunk(r.Context(), in); err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	resp := api.ChunkResponse{
		Envelope: api.Envelope{Success: true},
		Data: &api.ChunkReceipt{
			ChunkIndex:  in.Index,
			ChunkUUID:   in.ChunkUUID,
			TotalChunks: in.TotalChunks,
		},
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) merge(w http.ResponseWriter, r *http.Request) {
	var req api.MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("decode manifest: %w", err))
		return
	}
	if req.FileHash == "" || req.FileName == "" {
		h.fail(w, http.StatusBadRequest, errors.New("file_hash and file_name are required"))
		return
	}

	result, err := h.svc.Merge(r.Context(), req)
	switch {
	case errors.Is(err, common.ErrChunkMissing),
		errors.Is(err, common.ErrSizeMismatch),
		errors.Is(err, common.ErrHashMismatch):
		h.fail(w, http.StatusBadRequest, err)
		return
	case err != nil:
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	resp := api.MergeResponse{
		Envelope: api.Envelope{Success: true},
		Data:     result,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) content(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, errors.New("code is required"))
		return
	}

	f, rc, err := h.svc.Content(r.Context(), code)
	if errors.Is(err, common.ErrorNotFound) {
		h.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(f.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.Name))

	if _, err := io.Copy(w, rc); err != nil {
		// Headers are out, all we can do is log the broken stream.
		h.log.Warn(r.Context(), "content stream aborted", "code", code, "err", err)
	}
}

func (h *handler) thumbnail(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, errors.New("code is required"))
		return
	}

	rc, err := h.svc.Thumbnail(r.Context(), code)
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrNoThumbnail) {
		h.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn(r.Context(), "thumbnail stream aborted", "code", code, "err", err)
	}
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.svc.List(r.Context(), page, pageSize)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	resp := api.ListResponse{
		Envelope: api.Envelope{Success: true},
		Data:     result,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error(context.Background(), "encode response failed", "err", err)
	}
}

func (h *handler) fail(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, api.Envelope{Success: false, Message: err.Error()})
}

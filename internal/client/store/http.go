package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akarpov/mediavault/internal/api"
)

// HTTPClient implements Client against the store's HTTP endpoints.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPClient returns a store client for the given base URL, e.g.
// "http://localhost:8080". A zero timeout keeps the http.Client default.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) CheckExists(ctx context.Context, hash string) (bool, error) {
	body, err := json.Marshal(api.CheckRequest{FileHash: hash})
	if err != nil {
		return false, fmt.Errorf("encode check request: %w", err)
	}

	var resp api.CheckResponse
	if err := c.postJSON(ctx, api.PathCheck, body, &resp); err != nil {
		return false, err
	}
	if !resp.Success {
		return false, fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}

	return resp.Exists, nil
}

func (c *HTTPClient) UploadChunk(ctx context.Context, chunk ChunkUpload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(api.FieldChunk, chunk.ChunkUUID)
	if err != nil {
		return fmt.Errorf("create chunk part: %w", err)
	}
	if _, err := part.Write(chunk.Data); err != nil {
		return fmt.Errorf("write chunk part: %w", err)
	}

	fields := map[string]string{
		api.FieldChunkIndex:  strconv.Itoa(chunk.Index),
		api.FieldTotalChunks: strconv.Itoa(chunk.TotalChunks),
		api.FieldFileHash:    chunk.FileHash,
		api.FieldFileName:    chunk.FileName,
		api.FieldChunkUUID:   chunk.ChunkUUID,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+api.PathChunk, &buf)
	if err != nil {
		return fmt.Errorf("build chunk request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp api.ChunkResponse
	if err := c.do(req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}

	return nil
}

func (c *HTTPClient) Merge(ctx context.Context, manifest api.MergeRequest) (*api.MergeResult, error) {
	body, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	var resp api.MergeResponse
	if err := c.postJSON(ctx, api.PathMerge, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}

	return resp.Data, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", req.URL.Path, err)
	}

	return nil
}

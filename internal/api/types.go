// Package api defines the wire contract between the upload client and the
// store server: the dedup check, the multipart chunk-accept call and the
// finalize manifest. Both sides import these types so the contract cannot
// drift.
package api

// Envelope is the common JSON response wrapper. Message is only set on
// failures or informational results.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CheckRequest asks whether content with the given hash is already stored.
type CheckRequest struct {
	FileHash string `json:"file_hash"`
}

// CheckResponse reports the dedup result. Data is present when the file
// exists.
type CheckResponse struct {
	Envelope
	Exists bool           `json:"exists"`
	Data   *ExistingFile  `json:"data,omitempty"`
}

// ExistingFile describes an already-stored artifact matched by hash.
type ExistingFile struct {
	FileID   int64  `json:"file_id"`
	FileCode string `json:"file_code"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// Multipart form field names for the chunk-accept call. The chunk bytes
// travel in the "chunk" file part.
const (
	FieldChunk       = "chunk"
	FieldChunkIndex  = "chunk_index"
	FieldTotalChunks = "total_chunks"
	FieldFileHash    = "file_hash"
	FieldFileName    = "file_name"
	FieldChunkUUID   = "chunk_uuid"
)

// ChunkResponse acknowledges one accepted chunk.
type ChunkResponse struct {
	Envelope
	Data *ChunkReceipt `json:"data,omitempty"`
}

// ChunkReceipt echoes back the identity of the stored chunk.
type ChunkReceipt struct {
	ChunkIndex  int    `json:"chunk_index"`
	ChunkUUID   string `json:"chunk_uuid"`
	TotalChunks int    `json:"total_chunks"`
}

// ChunkRef names one acknowledged chunk inside a finalize manifest. The
// store assembles strictly by Index, never by arrival or UUID order.
type ChunkRef struct {
	Index     int    `json:"chunk_index"`
	ChunkUUID string `json:"chunk_uuid"`
}

// MergeRequest is the finalize manifest. Thumbnail carries optional
// client-generated preview bytes (base64 on the wire via encoding/json).
type MergeRequest struct {
	FileHash          string     `json:"file_hash"`
	FileName          string     `json:"file_name"`
	FileSize          int64      `json:"file_size"`
	Chunks            []ChunkRef `json:"chunks"`
	Album             string     `json:"album,omitempty"`
	Subject           string     `json:"subject,omitempty"`
	Author            string     `json:"author,omitempty"`
	Level             string     `json:"level,omitempty"`
	CategoryIDs       []int64    `json:"category_ids,omitempty"`
	TagIDs            []int64    `json:"tag_ids,omitempty"`
	Remark            string     `json:"remark,omitempty"`
	GenerateThumbnail bool       `json:"generate_thumbnail"`
	Thumbnail         []byte     `json:"thumbnail_base64,omitempty"`
}

// MergeResponse reports the finalize result. Exists is true when the hash
// was already stored and the call changed nothing.
type MergeResponse struct {
	Envelope
	Data *MergeResult `json:"data,omitempty"`
}

// MergeResult identifies the canonical artifact for the manifest's hash.
type MergeResult struct {
	FileID   int64  `json:"file_id"`
	FileCode string `json:"file_code"`
	Exists   bool   `json:"exists"`
}

// Endpoint paths served by the store.
const (
	PathCheck   = "/api/upload/check"
	PathChunk   = "/api/upload/chunk"
	PathMerge   = "/api/upload/merge"
	PathContent   = "/api/files/content"
	PathThumbnail = "/api/files/thumbnail"
	PathList      = "/api/files"
)

// ArtifactInfo is one row of the store listing.
type ArtifactInfo struct {
	FileID    int64  `json:"file_id"`
	FileCode  string `json:"file_code"`
	FileName  string `json:"file_name"`
	FileHash  string `json:"file_hash"`
	FileSize  int64  `json:"file_size"`
	Type      string `json:"type"`
	Mime      string `json:"mime"`
	Album     string `json:"album,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Author    string `json:"author,omitempty"`
	Level     string `json:"level,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListResponse is the paginated store listing.
type ListResponse struct {
	Envelope
	Data *ListPage `json:"data,omitempty"`
}

// ListPage carries one page of artifacts.
type ListPage struct {
	Files      []ArtifactInfo `json:"files"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

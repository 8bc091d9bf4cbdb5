package models

import "time"

// Pagination is returned alongside derived list views.
type Pagination struct {
	Page          int `json:"page"`
	PageSize      int `json:"page_size"`
	TotalFiltered int `json:"total_filtered"`
	TotalPages    int `json:"total_pages"`
}

// ListQuery is forwarded to upstream list endpoints of server-filtered pages.
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
	Filters  map[string][]string
}

// ListPage is one upstream list response. Total is the server-side match
// count and equals len(Items) for unpaginated endpoints.
type ListPage struct {
	Items []Entity
	Total int
}

// BulkPatchRequest is sent to PATCH <base>/bulk.
type BulkPatchRequest struct {
	IDs    []string       `json:"ids"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
}

// BulkDeleteRequest is sent to DELETE <base>/bulk.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkFailure names one id the server rejected.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult is the upstream answer to a bulk mutation.
type BulkResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Failed  []BulkFailure `json:"failed,omitempty"`
}

// SoftDeleteAction selects what a per-row soft delete does.
type SoftDeleteAction string

const (
	SoftDeleteArchive    SoftDeleteAction = "archive"
	SoftDeleteDeactivate SoftDeleteAction = "deactivate"
)

// SoftDeleteRequest is sent to PATCH <base>/:id/soft-delete.
type SoftDeleteRequest struct {
	Reason string           `json:"reason"`
	Action SoftDeleteAction `json:"action"`
}

// RowDetail is the lazily fetched expansion payload of one row.
type RowDetail map[string]any

// Toast is a transient user-facing message.
type Toast struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportArtifact describes a rendered export ready for download.
type ExportArtifact struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	Rows      int       `json:"rows"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

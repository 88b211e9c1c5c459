package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two item variants. Exactly one of the variant
// payloads is set, matching the kind.
const (
	KindDocument = "document"
	KindURL      = "url"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusIndexed    = "indexed"
	StatusFailed     = "failed"
)

// Item is one knowledge-base entry queued for ingestion. Document items carry
// an uploaded file reference; url items carry a remote address.
type Item struct {
	ID       uuid.UUID              `json:"id"`
	TenantID uuid.UUID              `json:"tenant_id"`
	Kind     string                 `json:"kind"`
	Name     string                 `json:"name"`
	Status   string                 `json:"status"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	Document *DocumentInfo `json:"document,omitempty"`
	URL      *URLInfo      `json:"url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DocumentInfo struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type URLInfo struct {
	Address string `json:"address"`
}

type CreateURLItemRequest struct {
	Name     string                 `json:"name" binding:"required"`
	Address  string                 `json:"address" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type UpdateItemRequest struct {
	Name     *string                `json:"name"`
	Status   *string                `json:"status"`
	Metadata map[string]interface{} `json:"metadata"`
}

type Metrics struct {
	Total          int            `json:"total"`
	ByKind         map[string]int `json:"by_kind"`
	ByStatus       map[string]int `json:"by_status"`
	IndexedPercent float64        `json:"indexed_percent"`
	TotalBytes     int64          `json:"total_bytes"`
}

package agentquery

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Query is one logged run of the data agent: the natural-language question,
// the SQL it generated, and how the run went.
type Query struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Question     string    `json:"question"`
	GeneratedSQL string    `json:"generated_sql"`
	Status       string    `json:"status"`
	LatencyMS    int64     `json:"latency_ms"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	ErrorText    string    `json:"error_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateQueryRequest struct {
	Question     string `json:"question" binding:"required"`
	GeneratedSQL string `json:"generated_sql"`
	Status       string `json:"status" binding:"required"`
	LatencyMS    int64  `json:"latency_ms"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	ErrorText    string `json:"error_text"`
}

// RowsPage is the row-page fetch result. It deliberately carries no metrics:
// the KPI fetch is a separate operation so page changes never recompute KPIs.
type RowsPage struct {
	Items    []*Query `json:"items"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

type Metrics struct {
	Total        int     `json:"total"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
	TokenSum     int     `json:"token_sum"`
}

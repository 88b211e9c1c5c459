package workflow

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Execution is one run of a workflow: who triggered it, when, how long it
// took, and how it ended.
type Execution struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	TriggerSource string     `json:"trigger_source"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	DurationMS    int64      `json:"duration_ms"`
	ErrorText     string     `json:"error_text,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CreateExecutionRequest struct {
	Name          string `json:"name" binding:"required"`
	TriggerSource string `json:"trigger_source" binding:"required"`
}

type TriggerRequest struct {
	Trigger string `json:"trigger" binding:"required"`
}

// Metrics are computed over the full filtered set, never a single page.
type Metrics struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	SuccessRate   float64        `json:"success_rate"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

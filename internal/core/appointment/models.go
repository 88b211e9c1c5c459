package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

type Appointment struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Title        string    `json:"title"`
	CustomerName string    `json:"customer_name"`
	Status       string    `json:"status"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateAppointmentRequest struct {
	Title        string    `json:"title" binding:"required"`
	CustomerName string    `json:"customer_name" binding:"required"`
	ScheduledAt  time.Time `json:"scheduled_at" binding:"required"`
	Notes        string    `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type Metrics struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	Upcoming       int            `json:"upcoming"`
	CompletionRate float64        `json:"completion_rate"`
}

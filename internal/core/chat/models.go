package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen      = "open"
	StatusResolved  = "resolved"
	StatusEscalated = "escalated"
)

// Session is one support conversation. UserFirstName/UserLastName come from a
// join against the users table; the rendered display name is derived, so
// search over it stays client-side.
type Session struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	UserFirstName string    `json:"user_first_name"`
	UserLastName  string    `json:"user_last_name"`
	Status        string    `json:"status"`
	MessageCount  int       `json:"message_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Session) UserDisplayName() string {
	return s.UserFirstName + " " + s.UserLastName
}

type CreateSessionRequest struct {
	UserFirstName string `json:"user_first_name" binding:"required"`
	UserLastName  string `json:"user_last_name" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type Metrics struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	ResolutionRate float64        `json:"resolution_rate"`
	AvgMessages    float64        `json:"avg_messages"`
}

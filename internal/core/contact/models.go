package contact

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusNew      = "new"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Contact struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is the derived field the search predicate runs over. It does
// not exist as a store column, so search for contacts stays client-side.
func (c *Contact) DisplayName() string {
	return c.FirstName + " " + c.LastName
}

type CreateContactRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Company   string `json:"company"`
	Email     string `json:"email" binding:"required,email"`
}

type UpdateContactRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Company   *string `json:"company"`
	Email     *string `json:"email"`
	Status    *string `json:"status"`
}

type Metrics struct {
	Total       int            `json:"total"`
	NewInWindow int            `json:"new_in_30_days"`
	ByStatus    map[string]int `json:"by_status"`
}

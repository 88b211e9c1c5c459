package auth

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Role struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

type Membership struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    uuid.UUID `json:"user_id"`
	RoleID    uuid.UUID `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Request/Response types
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type CreateTenantRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

type AddMemberRequest struct {
	Email  string `json:"email" binding:"required,email"`
	RoleID string `json:"role_id" binding:"required"`
}

// AdminRole is the distinguished role name granted every permission
// unconditionally, bypassing the explicit permission set.
const AdminRole = "admin"

// Dashboard resources and actions. A permission string is "<resource>:<action>".
const (
	ResourceWorkflows    = "workflows"
	ResourceAppointments = "appointments"
	ResourceContacts     = "contacts"
	ResourceChats        = "chats"
	ResourceDocuments    = "documents"
	ResourceQueries      = "queries"
	ResourceTenants      = "tenants"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

var AllResources = []string{
	ResourceWorkflows,
	ResourceAppointments,
	ResourceContacts,
	ResourceChats,
	ResourceDocuments,
	ResourceQueries,
	ResourceTenants,
}

var AllActions = []string{ActionView, ActionCreate, ActionUpdate, ActionDelete}

// Permission builds the "<resource>:<action>" string.
func Permission(resource, action string) string {
	return resource + ":" + action
}

func allPermissions() []string {
	var out []string
	for _, res := range AllResources {
		for _, act := range AllActions {
			out = append(out, Permission(res, act))
		}
	}
	return out
}

// Default role permission sets created with every tenant.
var (
	AdminPermissions = allPermissions()

	OperatorPermissions = func() []string {
		var out []string
		for _, res := range AllResources {
			if res == ResourceTenants {
				continue
			}
			out = append(out,
				Permission(res, ActionView),
				Permission(res, ActionCreate),
				Permission(res, ActionUpdate),
			)
		}
		return out
	}()

	ViewerPermissions = func() []string {
		var out []string
		for _, res := range AllResources {
			if res == ResourceTenants {
				continue
			}
			out = append(out, Permission(res, ActionView))
		}
		return out
	}()
)

package auth

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/storage/postgres"
)

type Repository struct {
	db *postgres.Client
}

func NewRepository(db *postgres.Client) *Repository {
	return &Repository{db: db}
}

// User methods
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	return r.db.DB.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Status,
	).Scan(&user.CreatedAt)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, password_hash, name, status, created_at FROM users WHERE email = $1`
	user := &User{}
	err := r.db.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Status, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT id, email, password_hash, name, status, created_at FROM users WHERE id = $1`
	user := &User{}
	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Status, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// Tenant methods
func (r *Repository) CreateTenant(ctx context.Context, tenant *Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING created_at`
	return r.db.DB.QueryRowContext(ctx, query,
		tenant.ID, tenant.Name, tenant.Slug,
	).Scan(&tenant.CreatedAt)
}

func (r *Repository) GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query := `SELECT id, name, slug, created_at FROM tenants WHERE id = $1`
	tenant := &Tenant{}
	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return tenant, err
}

func (r *Repository) GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	query := `SELECT id, name, slug, created_at FROM tenants WHERE slug = $1`
	tenant := &Tenant{}
	err := r.db.DB.QueryRowContext(ctx, query, slug).Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return tenant, err
}

func (r *Repository) GetTenantsByUserID(ctx context.Context, userID uuid.UUID) ([]*Tenant, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.created_at
		FROM tenants t
		INNER JOIN memberships m ON t.id = m.tenant_id
		WHERE m.user_id = $1
		ORDER BY t.created_at DESC`
	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		tenant := &Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

// Role methods
func (r *Repository) CreateRole(ctx context.Context, role *Role) error {
	permissions, _ := json.Marshal(role.Permissions)
	query := `
		INSERT INTO roles (id, tenant_id, name, permissions)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	return r.db.DB.QueryRowContext(ctx, query,
		role.ID, role.TenantID, role.Name, permissions,
	).Scan(&role.CreatedAt)
}

func (r *Repository) GetRoleByID(ctx context.Context, id uuid.UUID) (*Role, error) {
	query := `SELECT id, tenant_id, name, permissions, created_at FROM roles WHERE id = $1`
	role := &Role{}
	var permissions []byte
	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&role.ID, &role.TenantID, &role.Name, &permissions, &role.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *Repository) GetRolesByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*Role, error) {
	query := `SELECT id, tenant_id, name, permissions, created_at FROM roles WHERE tenant_id = $1 ORDER BY name`
	rows, err := r.db.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		role := &Role{}
		var permissions []byte
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Name, &permissions, &role.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal(permissions, &role.Permissions)
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRolesByMember returns every role the user holds in the tenant
// (role -> permission is many-to-many through the membership join).
func (r *Repository) GetRolesByMember(ctx context.Context, tenantID, userID uuid.UUID) ([]*Role, error) {
	query := `
		SELECT r.id, r.tenant_id, r.name, r.permissions, r.created_at
		FROM roles r
		INNER JOIN memberships m ON r.id = m.role_id
		WHERE m.tenant_id = $1 AND m.user_id = $2
		ORDER BY r.name`
	rows, err := r.db.DB.QueryContext(ctx, query, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		role := &Role{}
		var permissions []byte
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Name, &permissions, &role.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal(permissions, &role.Permissions)
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Membership methods
func (r *Repository) CreateMembership(ctx context.Context, membership *Membership) error {
	query := `
		INSERT INTO memberships (id, tenant_id, user_id, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	return r.db.DB.QueryRowContext(ctx, query,
		membership.ID, membership.TenantID, membership.UserID, membership.RoleID,
	).Scan(&membership.CreatedAt)
}

func (r *Repository) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error) {
	query := `SELECT id, tenant_id, user_id, role_id, created_at FROM memberships WHERE tenant_id = $1 AND user_id = $2`
	m := &Membership{}
	err := r.db.DB.QueryRowContext(ctx, query, tenantID, userID).Scan(
		&m.ID, &m.TenantID, &m.UserID, &m.RoleID, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *Repository) DeleteMembership(ctx context.Context, tenantID, userID uuid.UUID) error {
	query := `DELETE FROM memberships WHERE tenant_id = $1 AND user_id = $2`
	_, err := r.db.DB.ExecContext(ctx, query, tenantID, userID)
	return err
}

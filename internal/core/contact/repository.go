package contact

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/pipeline"
	"github.com/opsboard/opsboard/internal/storage/postgres"
)

type Repository struct {
	db *postgres.Client
}

func NewRepository(db *postgres.Client) *Repository {
	return &Repository{db: db}
}

const contactColumns = `id, tenant_id, first_name, last_name, company, email, status, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, c *Contact) error {
	query := `
		INSERT INTO contacts (id, tenant_id, first_name, last_name, company, email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.DB.QueryRowContext(ctx, query,
		c.ID, c.TenantID, c.FirstName, c.LastName, c.Company, c.Email, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE tenant_id = $1 AND id = $2`, contactColumns)

	c := &Contact{}
	err := r.db.DB.QueryRowContext(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Company,
		&c.Email, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE tenant_id = $1`, contactColumns)
	args := []interface{}{tenantID}

	if where, condArgs := conds.WhereClause(len(args)); where != "" {
		query += " AND " + where
		args = append(args, condArgs...)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		c := &Contact{}
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Company,
			&c.Email, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *Repository) Update(ctx context.Context, c *Contact) error {
	result, err := r.db.DB.ExecContext(ctx, `
		UPDATE contacts
		SET first_name = $3, last_name = $4, company = $5, email = $6, status = $7, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`,
		c.TenantID, c.ID, c.FirstName, c.LastName, c.Company, c.Email, c.Status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.DB.ExecContext(ctx,
		`DELETE FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

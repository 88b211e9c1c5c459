package appointment

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

const appointmentColumns = `id, tenant_id, title, customer_name, status, scheduled_at, notes, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (id, tenant_id, title, customer_name, status, scheduled_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.DB.QueryRowContext(ctx, query,
		a.ID, a.TenantID, a.Title, a.CustomerName, a.Status, a.ScheduledAt, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE tenant_id = $1 AND id = $2`, appointmentColumns)

	a := &Appointment{}
	err := r.db.DB.QueryRowContext(ctx, query, tenantID, id).Scan(
		&a.ID, &a.TenantID, &a.Title, &a.CustomerName, &a.Status,
		&a.ScheduledAt, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE tenant_id = $1`, appointmentColumns)
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

	var appointments []*Appointment
	for rows.Next() {
		a := &Appointment{}
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.Title, &a.CustomerName, &a.Status,
			&a.ScheduledAt, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	result, err := r.db.DB.ExecContext(ctx,
		`UPDATE appointments SET status = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, status)
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
		`DELETE FROM appointments WHERE tenant_id = $1 AND id = $2`, tenantID, id)
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

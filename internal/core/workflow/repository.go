package workflow

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

const executionColumns = `id, tenant_id, name, status, trigger_source, started_at, finished_at, duration_ms, error_text, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, e *Execution) error {
	query := `
		INSERT INTO workflow_executions (id, tenant_id, name, status, trigger_source, started_at, finished_at, duration_ms, error_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	return r.db.DB.QueryRowContext(ctx, query,
		e.ID, e.TenantID, e.Name, e.Status, e.TriggerSource, e.StartedAt, e.FinishedAt, e.DurationMS, e.ErrorText,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Execution, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_executions WHERE tenant_id = $1 AND id = $2`, executionColumns)
	return r.scanExecution(r.db.DB.QueryRowContext(ctx, query, tenantID, id))
}

// ListFiltered returns the FULL filtered set for the tenant in stable order.
// Pagination happens downstream in the pipeline, not in SQL.
func (r *Repository) ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Execution, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_executions WHERE tenant_id = $1`, executionColumns)
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

	var executions []*Execution
	for rows.Next() {
		e := &Execution{}
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.Name, &e.Status, &e.TriggerSource,
			&e.StartedAt, &e.FinishedAt, &e.DurationMS, &e.ErrorText,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status, errorText string) error {
	query := `
		UPDATE workflow_executions
		SET status = $3, error_text = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, tenantID, id, status, errorText)
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
		`DELETE FROM workflow_executions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
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

func (r *Repository) scanExecution(row *sql.Row) (*Execution, error) {
	e := &Execution{}
	err := row.Scan(
		&e.ID, &e.TenantID, &e.Name, &e.Status, &e.TriggerSource,
		&e.StartedAt, &e.FinishedAt, &e.DurationMS, &e.ErrorText,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

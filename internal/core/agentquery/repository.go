package agentquery

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

const queryColumns = `id, tenant_id, question, generated_sql, status, latency_ms, model, input_tokens, output_tokens, error_text, created_at`

func (r *Repository) Create(ctx context.Context, q *Query) error {
	query := `
		INSERT INTO agent_queries (id, tenant_id, question, generated_sql, status, latency_ms, model, input_tokens, output_tokens, error_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	return r.db.DB.QueryRowContext(ctx, query,
		q.ID, q.TenantID, q.Question, q.GeneratedSQL, q.Status,
		q.LatencyMS, q.Model, q.InputTokens, q.OutputTokens, q.ErrorText,
	).Scan(&q.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Query, error) {
	query := fmt.Sprintf(`SELECT %s FROM agent_queries WHERE tenant_id = $1 AND id = $2`, queryColumns)

	q := &Query{}
	err := r.db.DB.QueryRowContext(ctx, query, tenantID, id).Scan(
		&q.ID, &q.TenantID, &q.Question, &q.GeneratedSQL, &q.Status,
		&q.LatencyMS, &q.Model, &q.InputTokens, &q.OutputTokens, &q.ErrorText,
		&q.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *Repository) ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Query, error) {
	query := fmt.Sprintf(`SELECT %s FROM agent_queries WHERE tenant_id = $1`, queryColumns)
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

	var queries []*Query
	for rows.Next() {
		q := &Query{}
		if err := rows.Scan(
			&q.ID, &q.TenantID, &q.Question, &q.GeneratedSQL, &q.Status,
			&q.LatencyMS, &q.Model, &q.InputTokens, &q.OutputTokens, &q.ErrorText,
			&q.CreatedAt,
		); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.DB.ExecContext(ctx,
		`DELETE FROM agent_queries WHERE tenant_id = $1 AND id = $2`, tenantID, id)
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

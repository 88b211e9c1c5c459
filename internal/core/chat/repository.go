package chat

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

const sessionColumns = `id, tenant_id, user_first_name, user_last_name, status, message_count, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO chat_sessions (id, tenant_id, user_first_name, user_last_name, status, message_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return r.db.DB.QueryRowContext(ctx, query,
		s.ID, s.TenantID, s.UserFirstName, s.UserLastName, s.Status, s.MessageCount,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM chat_sessions WHERE tenant_id = $1 AND id = $2`, sessionColumns)

	s := &Session{}
	err := r.db.DB.QueryRowContext(ctx, query, tenantID, id).Scan(
		&s.ID, &s.TenantID, &s.UserFirstName, &s.UserLastName,
		&s.Status, &s.MessageCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM chat_sessions WHERE tenant_id = $1`, sessionColumns)
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

	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.UserFirstName, &s.UserLastName,
			&s.Status, &s.MessageCount, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	result, err := r.db.DB.ExecContext(ctx,
		`UPDATE chat_sessions SET status = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`,
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

func (r *Repository) IncrementMessageCount(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.DB.ExecContext(ctx,
		`UPDATE chat_sessions SET message_count = message_count + 1, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
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
		`DELETE FROM chat_sessions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
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

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
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

const itemColumns = `id, tenant_id, kind, name, status, metadata, file_path, content_type, size_bytes, url, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, item *Item) error {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}

	var filePath, contentType, address sql.NullString
	var sizeBytes sql.NullInt64
	if item.Document != nil {
		filePath = sql.NullString{String: item.Document.Path, Valid: true}
		contentType = sql.NullString{String: item.Document.ContentType, Valid: true}
		sizeBytes = sql.NullInt64{Int64: item.Document.SizeBytes, Valid: true}
	}
	if item.URL != nil {
		address = sql.NullString{String: item.URL.Address, Valid: true}
	}

	query := `
		INSERT INTO catalog_items (id, tenant_id, kind, name, status, metadata, file_path, content_type, size_bytes, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	return r.db.DB.QueryRowContext(ctx, query,
		item.ID, item.TenantID, item.Kind, item.Name, item.Status, metadata,
		filePath, contentType, sizeBytes, address,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM catalog_items WHERE tenant_id = $1 AND id = $2`, itemColumns)

	item, err := scanItem(r.db.DB.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

func (r *Repository) ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM catalog_items WHERE tenant_id = $1`, itemColumns)
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

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) Update(ctx context.Context, item *Item) error {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}

	result, err := r.db.DB.ExecContext(ctx, `
		UPDATE catalog_items
		SET name = $3, status = $4, metadata = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`,
		item.TenantID, item.ID, item.Name, item.Status, metadata)
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
		`DELETE FROM catalog_items WHERE tenant_id = $1 AND id = $2`, tenantID, id)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*Item, error) {
	item := &Item{}
	var metadata []byte
	var filePath, contentType, address sql.NullString
	var sizeBytes sql.NullInt64

	err := row.Scan(
		&item.ID, &item.TenantID, &item.Kind, &item.Name, &item.Status, &metadata,
		&filePath, &contentType, &sizeBytes, &address,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
			return nil, err
		}
	}

	switch item.Kind {
	case KindDocument:
		item.Document = &DocumentInfo{
			Path:        filePath.String,
			ContentType: contentType.String,
			SizeBytes:   sizeBytes.Int64,
		}
	case KindURL:
		item.URL = &URLInfo{Address: address.String}
	}

	return item, nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/core/validation"
	"github.com/opsboard/opsboard/internal/pipeline"
	"github.com/opsboard/opsboard/internal/storage/blob"
)

var (
	ErrNotFound      = errors.New("catalog item not found")
	ErrInvalidStatus = errors.New("invalid ingestion status")
)

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusIndexed:    true,
	StatusFailed:     true,
}

// metadataSchema constrains user-entered metadata on catalog items.
var metadataSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":    map[string]interface{}{"type": "string"},
		"source":   map[string]interface{}{"type": "string"},
		"language": map[string]interface{}{"type": "string"},
		"tags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"additionalProperties": false,
}

var filterSpec = pipeline.FilterSpec{
	EqualityColumns: map[string]string{
		"kind":   "kind",
		"status": "status",
	},
	SearchColumns: []string{"name"},
}

type Service struct {
	repo       *Repository
	files      blob.Store
	bucket     string
	filePolicy *validation.FilePolicy
	validator  *validation.Validator
	recorder   pipeline.Recorder
	logger     *zap.Logger
}

func NewService(repo *Repository, files blob.Store, bucket string, filePolicy *validation.FilePolicy, validator *validation.Validator, recorder pipeline.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = pipeline.NoopRecorder{}
	}
	return &Service{
		repo:       repo,
		files:      files,
		bucket:     bucket,
		filePolicy: filePolicy,
		validator:  validator,
		recorder:   recorder,
		logger:     logger,
	}
}

func (s *Service) pipe(tenantID uuid.UUID) *pipeline.Pipeline[*Item, Metrics] {
	return pipeline.New("catalog", filterSpec,
		func(ctx context.Context, conds *pipeline.Conditions) ([]*Item, error) {
			return s.repo.ListFiltered(ctx, tenantID, conds)
		},
		computeMetrics,
		pipeline.WithRecorder[*Item, Metrics](s.recorder),
	)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) (pipeline.Result[*Item, Metrics], error) {
	result, err := s.pipe(tenantID).Run(ctx, req)
	if err != nil {
		s.logger.Error("catalog list failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	return result, err
}

func (s *Service) Export(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) ([]*Item, error) {
	return s.pipe(tenantID).Export(ctx, req)
}

// CreateDocument validates the upload against the file policy and the
// metadata against the schema before any bytes are stored, then writes the
// file to blob storage and records the item.
func (s *Service) CreateDocument(ctx context.Context, tenantID uuid.UUID, name, filename, contentType string, size int64, content io.Reader, metadata map[string]interface{}) (*Item, error) {
	if err := s.filePolicy.CheckFile(filename, contentType, size); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(metadata, metadataSchema); err != nil {
		return nil, err
	}

	id := uuid.New()
	filePath := path.Join(tenantID.String(), id.String(), filename)

	storedPath, err := s.files.Upload(ctx, s.bucket, filePath, content)
	if err != nil {
		s.logger.Error("catalog document upload failed", zap.String("path", filePath), zap.Error(err))
		return nil, err
	}

	item := &Item{
		ID:       id,
		TenantID: tenantID,
		Kind:     KindDocument,
		Name:     name,
		Status:   StatusPending,
		Metadata: metadata,
		Document: &DocumentInfo{
			Path:        storedPath,
			ContentType: contentType,
			SizeBytes:   size,
		},
	}

	if err := s.repo.Create(ctx, item); err != nil {
		// The row is authoritative; remove the orphaned file.
		_ = s.files.Delete(ctx, s.bucket, filePath)
		s.logger.Error("catalog item create failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return item, nil
}

// CreateURL records a url item after validating the address format and the
// metadata. Nothing is fetched from the address at ingestion time.
func (s *Service) CreateURL(ctx context.Context, tenantID uuid.UUID, req *CreateURLItemRequest) (*Item, error) {
	if err := validation.CheckURL(req.Address); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req.Metadata, metadataSchema); err != nil {
		return nil, err
	}

	item := &Item{
		ID:       uuid.New(),
		TenantID: tenantID,
		Kind:     KindURL,
		Name:     req.Name,
		Status:   StatusPending,
		Metadata: req.Metadata,
		URL:      &URLInfo{Address: req.Address},
	}

	if err := s.repo.Create(ctx, item); err != nil {
		s.logger.Error("catalog item create failed", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req *UpdateItemRequest) (*Item, error) {
	item, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Status != nil {
		if !validStatuses[*req.Status] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
		}
		item.Status = *req.Status
	}
	if req.Metadata != nil {
		if err := s.validator.Validate(req.Metadata, metadataSchema); err != nil {
			return nil, err
		}
		item.Metadata = req.Metadata
	}

	if err := s.repo.Update(ctx, item); err != nil {
		s.logger.Error("catalog item update failed", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	return item, nil
}

// Delete removes the item row and, for document items, the stored file.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	item, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	if item.Document != nil {
		if err := s.files.Delete(ctx, s.bucket, item.Document.Path); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.logger.Warn("catalog file cleanup failed", zap.String("path", item.Document.Path), zap.Error(err))
		}
	}
	return nil
}

// Download opens the stored file for a document item.
func (s *Service) Download(ctx context.Context, tenantID, id uuid.UUID) (*Item, io.ReadCloser, error) {
	item, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if item.Document == nil {
		return nil, nil, fmt.Errorf("catalog item %s has no file", id)
	}
	rc, err := s.files.Download(ctx, s.bucket, item.Document.Path)
	if err != nil {
		return nil, nil, err
	}
	return item, rc, nil
}

// MergeItem replaces the matching item in a cached set. The optimistic merge
// applied to the catalog view ahead of the authoritative refetch.
func MergeItem(items []*Item, updated *Item) []*Item {
	out := make([]*Item, len(items))
	for i, item := range items {
		if item.ID == updated.ID {
			out[i] = updated
		} else {
			out[i] = item
		}
	}
	return out
}

func computeMetrics(rows []*Item) Metrics {
	byStatus := pipeline.CountBy(rows, func(i *Item) string { return i.Status })

	var totalBytes int64
	for _, item := range rows {
		if item.Document != nil {
			totalBytes += item.Document.SizeBytes
		}
	}

	return Metrics{
		Total:          len(rows),
		ByKind:         pipeline.CountBy(rows, func(i *Item) string { return i.Kind }),
		ByStatus:       byStatus,
		IndexedPercent: pipeline.Percentage(byStatus[StatusIndexed], len(rows)),
		TotalBytes:     totalBytes,
	}
}

func CSVColumns() []pipeline.CSVColumn[*Item] {
	return []pipeline.CSVColumn[*Item]{
		{Header: "id", Value: func(i *Item) string { return i.ID.String() }},
		{Header: "kind", Value: func(i *Item) string { return i.Kind }},
		{Header: "name", Value: func(i *Item) string { return i.Name }},
		{Header: "status", Value: func(i *Item) string { return i.Status }},
		{Header: "size_bytes", Value: func(i *Item) string {
			if i.Document == nil {
				return ""
			}
			return strconv.FormatInt(i.Document.SizeBytes, 10)
		}},
		{Header: "url", Value: func(i *Item) string {
			if i.URL == nil {
				return ""
			}
			return i.URL.Address
		}},
		{Header: "created_at", Value: func(i *Item) string { return i.CreatedAt.Format(time.RFC3339) }},
	}
}

package agentquery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/pipeline"
)

var (
	ErrNotFound      = errors.New("agent query not found")
	ErrInvalidStatus = errors.New("invalid query status")
)

var filterSpec = pipeline.FilterSpec{
	EqualityColumns: map[string]string{
		"status": "status",
		"model":  "model",
	},
	SearchColumns: []string{"question", "generated_sql"},
}

type Service struct {
	repo     *Repository
	recorder pipeline.Recorder
	logger   *zap.Logger
}

func NewService(repo *Repository, recorder pipeline.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = pipeline.NoopRecorder{}
	}
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

func (s *Service) pipe(tenantID uuid.UUID) *pipeline.Pipeline[*Query, Metrics] {
	return pipeline.New("agentquery", filterSpec,
		func(ctx context.Context, conds *pipeline.Conditions) ([]*Query, error) {
			return s.repo.ListFiltered(ctx, tenantID, conds)
		},
		computeMetrics,
		pipeline.WithRecorder[*Query, Metrics](s.recorder),
	)
}

// List is the row-page fetch. It is decoupled from Stats: the two run as
// independent operations with independent loading states, and a page change
// only needs this one.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) (RowsPage, error) {
	req.Normalize()

	rows, err := s.pipe(tenantID).Export(ctx, req)
	if err != nil {
		s.logger.Error("agent query list failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return RowsPage{}, err
	}

	return RowsPage{
		Items:    pipeline.Paginate(rows, req.Page, req.PageSize),
		Total:    len(rows),
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// Stats is the KPI fetch. Metrics depend only on the filter state; the page
// and page size in req are ignored.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) (Metrics, error) {
	rows, err := s.pipe(tenantID).Export(ctx, req)
	if err != nil {
		s.logger.Error("agent query stats failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return Metrics{}, err
	}
	return computeMetrics(rows), nil
}

func (s *Service) Export(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) ([]*Query, error) {
	return s.pipe(tenantID).Export(ctx, req)
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *CreateQueryRequest) (*Query, error) {
	if req.Status != StatusSuccess && req.Status != StatusError {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	q := &Query{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Question:     req.Question,
		GeneratedSQL: req.GeneratedSQL,
		Status:       req.Status,
		LatencyMS:    req.LatencyMS,
		Model:        req.Model,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		ErrorText:    req.ErrorText,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		s.logger.Error("agent query create failed", zap.Error(err))
		return nil, err
	}
	return q, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Query, error) {
	q, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNotFound
	}
	return q, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}

func computeMetrics(rows []*Query) Metrics {
	succeeded := 0
	tokens := 0
	var latencySum float64
	for _, q := range rows {
		if q.Status == StatusSuccess {
			succeeded++
		}
		tokens += q.InputTokens + q.OutputTokens
		latencySum += float64(q.LatencyMS)
	}

	return Metrics{
		Total:        len(rows),
		SuccessRate:  pipeline.SuccessRate(succeeded, len(rows)),
		AvgLatencyMS: pipeline.Average(latencySum, len(rows)),
		TokenSum:     tokens,
	}
}

func CSVColumns() []pipeline.CSVColumn[*Query] {
	return []pipeline.CSVColumn[*Query]{
		{Header: "id", Value: func(q *Query) string { return q.ID.String() }},
		{Header: "question", Value: func(q *Query) string { return q.Question }},
		{Header: "status", Value: func(q *Query) string { return q.Status }},
		{Header: "latency_ms", Value: func(q *Query) string { return strconv.FormatInt(q.LatencyMS, 10) }},
		{Header: "model", Value: func(q *Query) string { return q.Model }},
		{Header: "tokens", Value: func(q *Query) string { return strconv.Itoa(q.InputTokens + q.OutputTokens) }},
		{Header: "created_at", Value: func(q *Query) string { return q.CreatedAt.Format(time.RFC3339) }},
	}
}

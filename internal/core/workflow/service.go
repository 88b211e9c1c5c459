package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/pipeline"
	"github.com/opsboard/opsboard/internal/webhook"
)

var (
	ErrNotFound      = errors.New("workflow execution not found")
	ErrInvalidStatus = errors.New("invalid execution status")
)

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusRunning:   true,
	StatusCompleted: true,
	StatusFailed:    true,
}

var filterSpec = pipeline.FilterSpec{
	EqualityColumns: map[string]string{
		"status":         "status",
		"trigger_source": "trigger_source",
	},
	SearchColumns: []string{"name", "trigger_source"},
}

type Service struct {
	repo       *Repository
	hooks      *webhook.Client
	triggerURL string
	recorder   pipeline.Recorder
	logger     *zap.Logger
}

func NewService(repo *Repository, hooks *webhook.Client, triggerURL string, recorder pipeline.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = pipeline.NoopRecorder{}
	}
	return &Service{
		repo:       repo,
		hooks:      hooks,
		triggerURL: triggerURL,
		recorder:   recorder,
		logger:     logger,
	}
}

func (s *Service) pipe(tenantID uuid.UUID) *pipeline.Pipeline[*Execution, Metrics] {
	return pipeline.New("workflow", filterSpec,
		func(ctx context.Context, conds *pipeline.Conditions) ([]*Execution, error) {
			return s.repo.ListFiltered(ctx, tenantID, conds)
		},
		computeMetrics,
		pipeline.WithRecorder[*Execution, Metrics](s.recorder),
	)
}

// List runs the full pipeline: fetch the filtered set, aggregate metrics over
// it, slice the requested page.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) (pipeline.Result[*Execution, Metrics], error) {
	result, err := s.pipe(tenantID).Run(ctx, req)
	if err != nil {
		s.logger.Error("workflow list failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	return result, err
}

// Export returns the full filtered set regardless of pagination state.
func (s *Service) Export(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) ([]*Execution, error) {
	return s.pipe(tenantID).Export(ctx, req)
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *CreateExecutionRequest) (*Execution, error) {
	now := time.Now()
	execution := &Execution{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Name:          req.Name,
		Status:        StatusPending,
		TriggerSource: req.TriggerSource,
		StartedAt:     &now,
	}
	if err := s.repo.Create(ctx, execution); err != nil {
		s.logger.Error("workflow create failed", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}
	return execution, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Execution, error) {
	execution, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if execution == nil {
		return nil, ErrNotFound
	}
	return execution, nil
}

func (s *Service) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status, errorText string) error {
	if !validStatuses[status] {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, status, errorText); err != nil {
		s.logger.Error("workflow status update failed", zap.String("id", id.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// Trigger posts a trigger event to the configured workflow endpoint. A non-2xx
// response surfaces as *webhook.Error with the upstream status and body.
func (s *Service) Trigger(ctx context.Context, trigger string) error {
	if s.triggerURL == "" {
		return errors.New("workflow trigger endpoint not configured")
	}
	if err := s.hooks.Trigger(ctx, s.triggerURL, trigger); err != nil {
		s.logger.Error("workflow trigger failed", zap.String("trigger", trigger), zap.Error(err))
		return err
	}
	return nil
}

func computeMetrics(rows []*Execution) Metrics {
	byStatus := pipeline.CountBy(rows, func(e *Execution) string { return e.Status })

	var durationSum float64
	var finished int
	for _, e := range rows {
		if e.Status == StatusCompleted || e.Status == StatusFailed {
			durationSum += float64(e.DurationMS)
			finished++
		}
	}

	return Metrics{
		Total:         len(rows),
		ByStatus:      byStatus,
		SuccessRate:   pipeline.SuccessRate(byStatus[StatusCompleted], len(rows)),
		AvgDurationMS: pipeline.Average(durationSum, finished),
	}
}

// CSVColumns defines the export layout for executions.
func CSVColumns() []pipeline.CSVColumn[*Execution] {
	return []pipeline.CSVColumn[*Execution]{
		{Header: "id", Value: func(e *Execution) string { return e.ID.String() }},
		{Header: "name", Value: func(e *Execution) string { return e.Name }},
		{Header: "status", Value: func(e *Execution) string { return e.Status }},
		{Header: "trigger_source", Value: func(e *Execution) string { return e.TriggerSource }},
		{Header: "duration_ms", Value: func(e *Execution) string { return strconv.FormatInt(e.DurationMS, 10) }},
		{Header: "error_text", Value: func(e *Execution) string { return e.ErrorText }},
		{Header: "created_at", Value: func(e *Execution) string { return e.CreatedAt.Format(time.RFC3339) }},
	}
}

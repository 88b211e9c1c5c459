package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/pipeline"
)

var (
	ErrNotFound      = errors.New("appointment not found")
	ErrInvalidStatus = errors.New("invalid appointment status")
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

var filterSpec = pipeline.FilterSpec{
	EqualityColumns: map[string]string{
		"status": "status",
	},
	SearchColumns: []string{"title", "customer_name"},
}

type store interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error)
	ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type Service struct {
	repo     store
	recorder pipeline.Recorder
	logger   *zap.Logger
}

func NewService(repo store, recorder pipeline.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = pipeline.NoopRecorder{}
	}
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

func (s *Service) pipe(tenantID uuid.UUID) *pipeline.Pipeline[*Appointment, Metrics] {
	return pipeline.New("appointment", filterSpec,
		func(ctx context.Context, conds *pipeline.Conditions) ([]*Appointment, error) {
			return s.repo.ListFiltered(ctx, tenantID, conds)
		},
		computeMetrics,
		pipeline.WithRecorder[*Appointment, Metrics](s.recorder),
	)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) (pipeline.Result[*Appointment, Metrics], error) {
	result, err := s.pipe(tenantID).Run(ctx, req)
	if err != nil {
		s.logger.Error("appointment list failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	return result, err
}

func (s *Service) Export(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) ([]*Appointment, error) {
	return s.pipe(tenantID).Export(ctx, req)
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *CreateAppointmentRequest) (*Appointment, error) {
	a := &Appointment{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Title:        req.Title,
		CustomerName: req.CustomerName,
		Status:       StatusScheduled,
		ScheduledAt:  req.ScheduledAt,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("appointment create failed", zap.String("title", req.Title), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// UpdateStatus transitions an appointment to a new status. Selecting the
// status the appointment already has is a no-op: no write is issued.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	current, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	if err := s.repo.UpdateStatus(ctx, tenantID, id, status); err != nil {
		s.logger.Error("appointment status update failed", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	current.Status = status
	current.UpdatedAt = time.Now()
	return current, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}

func computeMetrics(rows []*Appointment) Metrics {
	byStatus := pipeline.CountBy(rows, func(a *Appointment) string { return a.Status })

	now := time.Now()
	upcoming := 0
	for _, a := range rows {
		if a.ScheduledAt.After(now) && (a.Status == StatusScheduled || a.Status == StatusConfirmed) {
			upcoming++
		}
	}

	return Metrics{
		Total:          len(rows),
		ByStatus:       byStatus,
		Upcoming:       upcoming,
		CompletionRate: pipeline.Percentage(byStatus[StatusCompleted], len(rows)),
	}
}

func CSVColumns() []pipeline.CSVColumn[*Appointment] {
	return []pipeline.CSVColumn[*Appointment]{
		{Header: "id", Value: func(a *Appointment) string { return a.ID.String() }},
		{Header: "title", Value: func(a *Appointment) string { return a.Title }},
		{Header: "customer_name", Value: func(a *Appointment) string { return a.CustomerName }},
		{Header: "status", Value: func(a *Appointment) string { return a.Status }},
		{Header: "scheduled_at", Value: func(a *Appointment) string { return a.ScheduledAt.Format(time.RFC3339) }},
		{Header: "created_at", Value: func(a *Appointment) string { return a.CreatedAt.Format(time.RFC3339) }},
	}
}

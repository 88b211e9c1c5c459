package chat

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
	ErrNotFound      = errors.New("chat session not found")
	ErrInvalidStatus = errors.New("invalid chat session status")
)

var validStatuses = map[string]bool{
	StatusOpen:      true,
	StatusResolved:  true,
	StatusEscalated: true,
}

// Search runs over the derived user display name; no server-side columns.
var filterSpec = pipeline.FilterSpec{
	EqualityColumns: map[string]string{
		"status": "status",
	},
}

type store interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Session, error)
	ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Session, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
	IncrementMessageCount(ctx context.Context, tenantID, id uuid.UUID) error
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

func matchSession(s *Session, term string) bool {
	return pipeline.MatchAny(term, s.UserDisplayName())
}

func (s *Service) pipe(tenantID uuid.UUID) *pipeline.Pipeline[*Session, Metrics] {
	return pipeline.New("chat", filterSpec,
		func(ctx context.Context, conds *pipeline.Conditions) ([]*Session, error) {
			return s.repo.ListFiltered(ctx, tenantID, conds)
		},
		computeMetrics,
		pipeline.WithMatch[*Session, Metrics](matchSession),
		pipeline.WithRecorder[*Session, Metrics](s.recorder),
	)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) (pipeline.Result[*Session, Metrics], error) {
	result, err := s.pipe(tenantID).Run(ctx, req)
	if err != nil {
		s.logger.Error("chat list failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	return result, err
}

func (s *Service) Export(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) ([]*Session, error) {
	return s.pipe(tenantID).Export(ctx, req)
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *CreateSessionRequest) (*Session, error) {
	session := &Session{
		ID:            uuid.New(),
		TenantID:      tenantID,
		UserFirstName: req.UserFirstName,
		UserLastName:  req.UserLastName,
		Status:        StatusOpen,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		s.logger.Error("chat session create failed", zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Session, error) {
	session, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	return session, nil
}

// UpdateStatus transitions a session. Selecting the current status is a
// no-op: no write is issued.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (*Session, error) {
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
		s.logger.Error("chat status update failed", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	current.Status = status
	current.UpdatedAt = time.Now()
	return current, nil
}

func (s *Service) RecordMessage(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.IncrementMessageCount(ctx, tenantID, id)
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}

func computeMetrics(rows []*Session) Metrics {
	byStatus := pipeline.CountBy(rows, func(s *Session) string { return s.Status })
	messages := pipeline.SumBy(rows, func(s *Session) float64 { return float64(s.MessageCount) })

	return Metrics{
		Total:          len(rows),
		ByStatus:       byStatus,
		ResolutionRate: pipeline.Percentage(byStatus[StatusResolved], len(rows)),
		AvgMessages:    pipeline.Average(messages, len(rows)),
	}
}

func CSVColumns() []pipeline.CSVColumn[*Session] {
	return []pipeline.CSVColumn[*Session]{
		{Header: "id", Value: func(s *Session) string { return s.ID.String() }},
		{Header: "user", Value: func(s *Session) string { return s.UserDisplayName() }},
		{Header: "status", Value: func(s *Session) string { return s.Status }},
		{Header: "messages", Value: func(s *Session) string { return fmt.Sprintf("%d", s.MessageCount) }},
		{Header: "created_at", Value: func(s *Session) string { return s.CreatedAt.Format(time.RFC3339) }},
	}
}

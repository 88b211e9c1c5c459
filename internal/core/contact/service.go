package contact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/pipeline"
)

var ErrNotFound = errors.New("contact not found")

// newContactWindow is how far back a contact still counts as "new".
const newContactWindow = 30 * 24 * time.Hour

// No SearchColumns: search runs over the derived display name, which the
// store cannot filter, so the residual predicate applies after the fetch.
var filterSpec = pipeline.FilterSpec{
	EqualityColumns: map[string]string{
		"status":  "status",
		"company": "company",
	},
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

func matchContact(c *Contact, term string) bool {
	return pipeline.MatchAny(term, c.DisplayName(), c.Company, c.Email)
}

func (s *Service) pipe(tenantID uuid.UUID) *pipeline.Pipeline[*Contact, Metrics] {
	return pipeline.New("contact", filterSpec,
		func(ctx context.Context, conds *pipeline.Conditions) ([]*Contact, error) {
			return s.repo.ListFiltered(ctx, tenantID, conds)
		},
		computeMetrics,
		pipeline.WithMatch[*Contact, Metrics](matchContact),
		pipeline.WithRecorder[*Contact, Metrics](s.recorder),
	)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) (pipeline.Result[*Contact, Metrics], error) {
	result, err := s.pipe(tenantID).Run(ctx, req)
	if err != nil {
		s.logger.Error("contact list failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	return result, err
}

func (s *Service) Export(ctx context.Context, tenantID uuid.UUID, req pipeline.ListRequest) ([]*Contact, error) {
	return s.pipe(tenantID).Export(ctx, req)
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *CreateContactRequest) (*Contact, error) {
	c := &Contact{
		ID:        uuid.New(),
		TenantID:  tenantID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Email:     req.Email,
		Status:    StatusNew,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("contact create failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req *UpdateContactRequest) (*Contact, error) {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		c.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		c.LastName = *req.LastName
	}
	if req.Company != nil {
		c.Company = *req.Company
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Status != nil {
		c.Status = *req.Status
	}

	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("contact update failed", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}

func computeMetrics(rows []*Contact) Metrics {
	cutoff := time.Now().Add(-newContactWindow)
	newCount := 0
	for _, c := range rows {
		if c.CreatedAt.After(cutoff) {
			newCount++
		}
	}
	return Metrics{
		Total:       len(rows),
		NewInWindow: newCount,
		ByStatus:    pipeline.CountBy(rows, func(c *Contact) string { return c.Status }),
	}
}

func CSVColumns() []pipeline.CSVColumn[*Contact] {
	return []pipeline.CSVColumn[*Contact]{
		{Header: "id", Value: func(c *Contact) string { return c.ID.String() }},
		{Header: "name", Value: func(c *Contact) string { return c.DisplayName() }},
		{Header: "company", Value: func(c *Contact) string { return c.Company }},
		{Header: "email", Value: func(c *Contact) string { return c.Email }},
		{Header: "status", Value: func(c *Contact) string { return c.Status }},
		{Header: "created_at", Value: func(c *Contact) string { return c.CreatedAt.Format(time.RFC3339) }},
	}
}

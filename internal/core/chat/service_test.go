package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/pipeline"
)

type mockStore struct {
	sessions    map[uuid.UUID]*Session
	updateCalls int
	increments  int
}

func newMockStore(sessions ...*Session) *mockStore {
	m := &mockStore{sessions: make(map[uuid.UUID]*Session)}
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *mockStore) Create(ctx context.Context, s *Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.TenantID != tenantID {
		return nil, nil
	}
	return s, nil
}

func (m *mockStore) ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Session, error) {
	var out []*Session
	for _, s := range m.sessions {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	m.updateCalls++
	m.sessions[id].Status = status
	return nil
}

func (m *mockStore) IncrementMessageCount(ctx context.Context, tenantID, id uuid.UUID) error {
	m.increments++
	m.sessions[id].MessageCount++
	return nil
}

func (m *mockStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	delete(m.sessions, id)
	return nil
}

func TestUpdateStatus_SameStatusIssuesNoWrite(t *testing.T) {
	tenantID := uuid.New()
	session := &Session{ID: uuid.New(), TenantID: tenantID, Status: StatusOpen}
	store := newMockStore(session)
	svc := NewService(store, nil, zap.NewNop())

	got, err := svc.UpdateStatus(context.Background(), tenantID, session.ID, StatusOpen)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if store.updateCalls != 0 {
		t.Errorf("selecting the current status should not write, got %d writes", store.updateCalls)
	}
	if got.Status != StatusOpen {
		t.Errorf("status changed unexpectedly to %q", got.Status)
	}
}

func TestUpdateStatus_Transition(t *testing.T) {
	tenantID := uuid.New()
	session := &Session{ID: uuid.New(), TenantID: tenantID, Status: StatusOpen}
	store := newMockStore(session)
	svc := NewService(store, nil, zap.NewNop())

	got, err := svc.UpdateStatus(context.Background(), tenantID, session.ID, StatusResolved)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if store.updateCalls != 1 {
		t.Errorf("expected one write, got %d", store.updateCalls)
	}
	if got.Status != StatusResolved {
		t.Errorf("got status %q, want %q", got.Status, StatusResolved)
	}

	if _, err := svc.UpdateStatus(context.Background(), tenantID, session.ID, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

// Search matches the derived display name client side; the store never sees
// the term.
func TestList_SearchesDisplayName(t *testing.T) {
	tenantID := uuid.New()
	store := newMockStore(
		&Session{ID: uuid.New(), TenantID: tenantID, UserFirstName: "Dana", UserLastName: "Whitfield", Status: StatusOpen},
		&Session{ID: uuid.New(), TenantID: tenantID, UserFirstName: "Omar", UserLastName: "Reyes", Status: StatusOpen},
		&Session{ID: uuid.New(), TenantID: tenantID, UserFirstName: "Dana", UserLastName: "Cole", Status: StatusResolved},
	)
	svc := NewService(store, nil, zap.NewNop())

	req := pipeline.NewListRequest()
	req.SetSearch("dana")

	result, err := svc.List(context.Background(), tenantID, req)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.TotalCount != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "dana", result.TotalCount)
	}
	for _, s := range result.PageItems {
		if s.UserFirstName != "Dana" {
			t.Errorf("unexpected match %q", s.UserDisplayName())
		}
	}
	// Metrics follow the searched set, not the unfiltered one.
	if result.Metrics.Total != 2 {
		t.Errorf("Metrics.Total = %d, want 2", result.Metrics.Total)
	}
	if result.Metrics.ResolutionRate != 50 {
		t.Errorf("ResolutionRate = %v, want 50", result.Metrics.ResolutionRate)
	}
}

func TestRecordMessage(t *testing.T) {
	tenantID := uuid.New()
	session := &Session{ID: uuid.New(), TenantID: tenantID, Status: StatusOpen}
	store := newMockStore(session)
	svc := NewService(store, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		if err := svc.RecordMessage(context.Background(), tenantID, session.ID); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}
	if session.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", session.MessageCount)
	}
}

func TestComputeMetrics(t *testing.T) {
	rows := []*Session{
		{Status: StatusOpen, MessageCount: 4},
		{Status: StatusResolved, MessageCount: 10},
		{Status: StatusResolved, MessageCount: 2},
		{Status: StatusEscalated, MessageCount: 8},
	}

	m := computeMetrics(rows)

	if m.Total != 4 {
		t.Errorf("Total = %d, want 4", m.Total)
	}
	if m.ResolutionRate != 50 {
		t.Errorf("ResolutionRate = %v, want 50", m.ResolutionRate)
	}
	if m.AvgMessages != 6 {
		t.Errorf("AvgMessages = %v, want 6", m.AvgMessages)
	}
	if m.ByStatus[StatusResolved] != 2 {
		t.Errorf("ByStatus[resolved] = %d, want 2", m.ByStatus[StatusResolved])
	}
}

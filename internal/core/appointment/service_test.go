package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/pipeline"
)

type mockStore struct {
	appointments map[uuid.UUID]*Appointment
	updateCalls  int
}

func newMockStore(appts ...*Appointment) *mockStore {
	m := &mockStore{appointments: make(map[uuid.UUID]*Appointment)}
	for _, a := range appts {
		m.appointments[a.ID] = a
	}
	return m
}

func (m *mockStore) Create(ctx context.Context, a *Appointment) error {
	m.appointments[a.ID] = a
	return nil
}

func (m *mockStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok || a.TenantID != tenantID {
		return nil, nil
	}
	return a, nil
}

func (m *mockStore) ListFiltered(ctx context.Context, tenantID uuid.UUID, conds *pipeline.Conditions) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	m.updateCalls++
	m.appointments[id].Status = status
	return nil
}

func (m *mockStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	delete(m.appointments, id)
	return nil
}

func newTestService(store *mockStore) *Service {
	return NewService(store, nil, zap.NewNop())
}

func TestUpdateStatus_SameStatusIssuesNoWrite(t *testing.T) {
	tenantID := uuid.New()
	appt := &Appointment{ID: uuid.New(), TenantID: tenantID, Title: "Intake call", Status: StatusScheduled}
	store := newMockStore(appt)
	svc := newTestService(store)

	got, err := svc.UpdateStatus(context.Background(), tenantID, appt.ID, StatusScheduled)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if store.updateCalls != 0 {
		t.Errorf("selecting the current status should not write, got %d writes", store.updateCalls)
	}
	if got.Status != StatusScheduled {
		t.Errorf("status changed unexpectedly to %q", got.Status)
	}
}

func TestUpdateStatus_TransitionWritesOnce(t *testing.T) {
	tenantID := uuid.New()
	appt := &Appointment{ID: uuid.New(), TenantID: tenantID, Title: "Intake call", Status: StatusScheduled}
	store := newMockStore(appt)
	svc := newTestService(store)

	got, err := svc.UpdateStatus(context.Background(), tenantID, appt.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if store.updateCalls != 1 {
		t.Errorf("expected exactly one write, got %d", store.updateCalls)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("got status %q, want %q", got.Status, StatusConfirmed)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	tenantID := uuid.New()
	appt := &Appointment{ID: uuid.New(), TenantID: tenantID, Status: StatusScheduled}
	store := newMockStore(appt)
	svc := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), tenantID, appt.ID, "rescheduled")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if store.updateCalls != 0 {
		t.Error("invalid status must not reach the store")
	}
}

func TestUpdateStatus_MissingAppointment(t *testing.T) {
	svc := newTestService(newMockStore())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), StatusConfirmed)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestComputeMetrics(t *testing.T) {
	now := time.Now()
	rows := []*Appointment{
		{Status: StatusScheduled, ScheduledAt: now.Add(2 * time.Hour)},
		{Status: StatusConfirmed, ScheduledAt: now.Add(24 * time.Hour)},
		{Status: StatusScheduled, ScheduledAt: now.Add(-2 * time.Hour)},
		{Status: StatusCompleted, ScheduledAt: now.Add(-24 * time.Hour)},
		{Status: StatusCancelled, ScheduledAt: now.Add(3 * time.Hour)},
	}

	m := computeMetrics(rows)

	if m.Total != 5 {
		t.Errorf("Total = %d, want 5", m.Total)
	}
	// Upcoming counts future scheduled/confirmed only; past slots and
	// cancelled ones are excluded.
	if m.Upcoming != 2 {
		t.Errorf("Upcoming = %d, want 2", m.Upcoming)
	}
	if m.CompletionRate != 20 {
		t.Errorf("CompletionRate = %v, want 20", m.CompletionRate)
	}
	if m.ByStatus[StatusScheduled] != 2 {
		t.Errorf("ByStatus[scheduled] = %d, want 2", m.ByStatus[StatusScheduled])
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := computeMetrics(nil)
	if m.Total != 0 || m.Upcoming != 0 || m.CompletionRate != 0 {
		t.Errorf("empty input should produce zero metrics, got %+v", m)
	}
}

package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsboard/opsboard/internal/webhook"
)

func TestTrigger_SurfacesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("engine draining"))
	}))
	defer srv.Close()

	svc := NewService(nil, webhook.NewClient(time.Second, "opsboard"), srv.URL, nil, zap.NewNop())

	err := svc.Trigger(context.Background(), "nightly-sync")
	if err == nil {
		t.Fatal("expected the upstream failure to surface")
	}
	var hookErr *webhook.Error
	if !errors.As(err, &hookErr) {
		t.Fatalf("expected *webhook.Error, got %T: %v", err, err)
	}
	if hookErr.Status != http.StatusServiceUnavailable || hookErr.Body != "engine draining" {
		t.Errorf("unexpected upstream error %+v", hookErr)
	}
}

func TestTrigger_Success(t *testing.T) {
	var triggered string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhook.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		triggered = p.Trigger
	}))
	defer srv.Close()

	svc := NewService(nil, webhook.NewClient(time.Second, "opsboard"), srv.URL, nil, zap.NewNop())

	if err := svc.Trigger(context.Background(), "nightly-sync"); err != nil {
		t.Fatalf("trigger failed: %v", err)
	}
	if triggered != "nightly-sync" {
		t.Errorf("posted trigger %q, want nightly-sync", triggered)
	}
}

func TestTrigger_UnconfiguredEndpoint(t *testing.T) {
	svc := NewService(nil, webhook.NewClient(time.Second, "opsboard"), "", nil, zap.NewNop())
	if err := svc.Trigger(context.Background(), "nightly-sync"); err == nil {
		t.Error("expected an error when no endpoint is configured")
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc := NewService(nil, nil, "", nil, zap.NewNop())
	err := svc.UpdateStatus(context.Background(), uuid.Nil, uuid.Nil, "paused", "")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestComputeMetrics(t *testing.T) {
	rows := []*Execution{
		{Status: StatusCompleted, DurationMS: 1000},
		{Status: StatusCompleted, DurationMS: 3000},
		{Status: StatusFailed, DurationMS: 500},
		{Status: StatusRunning},
		{Status: StatusPending},
	}

	m := computeMetrics(rows)

	if m.Total != 5 {
		t.Errorf("Total = %d, want 5", m.Total)
	}
	// Success rate is over everything fetched, running and pending included.
	if m.SuccessRate != 40 {
		t.Errorf("SuccessRate = %v, want 40", m.SuccessRate)
	}
	// Average duration only counts finished executions; in-flight rows would
	// drag it toward zero.
	if m.AvgDurationMS != 1500 {
		t.Errorf("AvgDurationMS = %v, want 1500", m.AvgDurationMS)
	}
	if m.ByStatus[StatusCompleted] != 2 {
		t.Errorf("ByStatus[completed] = %d, want 2", m.ByStatus[StatusCompleted])
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := computeMetrics(nil)
	if m.Total != 0 || m.SuccessRate != 0 || m.AvgDurationMS != 0 {
		t.Errorf("empty input should produce zero metrics, got %+v", m)
	}
}

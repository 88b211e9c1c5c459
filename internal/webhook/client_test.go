package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTrigger_PostsPayload(t *testing.T) {
	var got Payload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, "opsboard")
	if err := client.Trigger(context.Background(), srv.URL, "workflow-sync"); err != nil {
		t.Fatalf("trigger failed: %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if got.Trigger != "workflow-sync" {
		t.Errorf("Trigger = %q, want workflow-sync", got.Trigger)
	}
	if got.Source != "opsboard" {
		t.Errorf("Source = %q, want opsboard", got.Source)
	}
	if _, err := time.Parse(time.RFC3339, got.Timestamp); err != nil {
		t.Errorf("Timestamp %q is not RFC3339: %v", got.Timestamp, err)
	}
}

func TestTrigger_Non2xxCarriesUpstreamStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("workflow engine unavailable"))
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, "opsboard")
	err := client.Trigger(context.Background(), srv.URL, "workflow-sync")
	if err == nil {
		t.Fatal("expected an error for a 502 response")
	}

	var hookErr *Error
	if !errors.As(err, &hookErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if hookErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", hookErr.Status)
	}
	if hookErr.Body != "workflow engine unavailable" {
		t.Errorf("Body = %q", hookErr.Body)
	}
}

func TestTrigger_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(time.Second, "opsboard")
	err := client.Trigger(context.Background(), url, "workflow-sync")
	if err == nil {
		t.Fatal("expected an error for an unreachable endpoint")
	}
	var hookErr *Error
	if errors.As(err, &hookErr) {
		t.Error("a transport failure should not be reported as an upstream response")
	}
}

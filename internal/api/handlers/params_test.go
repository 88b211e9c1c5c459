package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func requestWithQuery(t *testing.T, query string) *gin.Context {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/workflows?"+query, nil)
	return c
}

func TestParseListRequest_Defaults(t *testing.T) {
	req := parseListRequest(requestWithQuery(t, ""))

	if req.Page != 1 || req.PageSize != 25 {
		t.Errorf("defaults = page %d size %d, want 1/25", req.Page, req.PageSize)
	}
	if req.Search != "" || len(req.Equality) != 0 || len(req.Ranges) != 0 {
		t.Errorf("empty query should set no filters: %+v", req)
	}
}

func TestParseListRequest_EqualityFromUnreservedParams(t *testing.T) {
	req := parseListRequest(requestWithQuery(t, "status=completed&trigger_source=cron&search=sync"))

	if req.Equality["status"] != "completed" {
		t.Errorf("status = %q", req.Equality["status"])
	}
	if req.Equality["trigger_source"] != "cron" {
		t.Errorf("trigger_source = %q", req.Equality["trigger_source"])
	}
	if req.Search != "sync" {
		t.Errorf("search = %q", req.Search)
	}
	if _, ok := req.Equality["search"]; ok {
		t.Error("reserved params must not become equality filters")
	}
}

// An explicit page param means the caller already holds this filter state, so
// the page-reset on filter changes must not clobber it.
func TestParseListRequest_ExplicitPageSurvivesFilters(t *testing.T) {
	req := parseListRequest(requestWithQuery(t, "status=completed&search=sync&page=3&page_size=50"))

	if req.Page != 3 {
		t.Errorf("page = %d, want 3", req.Page)
	}
	if req.PageSize != 50 {
		t.Errorf("page_size = %d, want 50", req.PageSize)
	}
}

func TestParseListRequest_UnknownPageSizeFallsBack(t *testing.T) {
	req := parseListRequest(requestWithQuery(t, "page_size=33"))
	if req.PageSize != 25 {
		t.Errorf("page_size = %d, want fallback 25", req.PageSize)
	}
}

func TestParseListRequest_DateRange(t *testing.T) {
	req := parseListRequest(requestWithQuery(t, "from=2025-06-01&to=2025-06-01"))

	if len(req.Ranges) != 1 {
		t.Fatalf("expected one range, got %d", len(req.Ranges))
	}
	rng := req.Ranges[0]
	if rng.Field != "created_at" {
		t.Errorf("range field = %q, want created_at", rng.Field)
	}
	// A same-day range covers the whole day.
	if rng.From == nil || rng.From.Hour() != 0 {
		t.Errorf("From = %v, want floored to midnight", rng.From)
	}
	if rng.To == nil || rng.To.Hour() != 23 || rng.To.Minute() != 59 {
		t.Errorf("To = %v, want end of day", rng.To)
	}
	if !rng.To.After(*rng.From) {
		t.Error("day bounds should cover a non-empty window")
	}
}

func TestParseListRequest_CustomRangeField(t *testing.T) {
	req := parseListRequest(requestWithQuery(t, "from=2025-06-01&range_field=scheduled_at"))
	if len(req.Ranges) != 1 || req.Ranges[0].Field != "scheduled_at" {
		t.Errorf("ranges = %+v", req.Ranges)
	}
}

func TestParseDate(t *testing.T) {
	if d := parseDate("2025-06-01"); d == nil || d.Day() != 1 {
		t.Errorf("plain date not parsed: %v", d)
	}
	if d := parseDate("2025-06-01T10:30:00Z"); d == nil || d.Hour() != 10 {
		t.Errorf("RFC3339 not parsed: %v", d)
	}
	if d := parseDate("yesterday"); d != nil {
		t.Errorf("garbage should parse to nil, got %v", d)
	}
	if d := parseDate(""); d != nil {
		t.Errorf("empty should parse to nil, got %v", d)
	}
	if d := parseDate("2025-06-01"); d != nil && !d.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date value = %v", d)
	}
}

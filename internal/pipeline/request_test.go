package pipeline

import (
	"testing"
	"time"
)

func TestSetEquality_ResetsPage(t *testing.T) {
	req := NewListRequest()
	req.SetPage(4)

	req.SetEquality("status", "completed")

	if req.Page != 1 {
		t.Errorf("page should reset to 1 after a filter change, got %d", req.Page)
	}
}

func TestSetEquality_SameValueKeepsPage(t *testing.T) {
	req := NewListRequest()
	req.SetEquality("status", "completed")
	req.SetPage(3)

	req.SetEquality("status", "completed")

	if req.Page != 3 {
		t.Errorf("setting the same filter value should not reset the page, got %d", req.Page)
	}
}

func TestSetSearch_ResetsPage(t *testing.T) {
	req := NewListRequest()
	req.SetPage(5)

	req.SetSearch("alpha")

	if req.Page != 1 {
		t.Errorf("page should reset to 1 after a search change, got %d", req.Page)
	}
}

func TestSetRange_ResetsPage(t *testing.T) {
	req := NewListRequest()
	req.SetPage(2)

	from := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	req.SetRange("created_at", &from, nil)

	if req.Page != 1 {
		t.Errorf("page should reset to 1 after a range change, got %d", req.Page)
	}
}

func TestSetPageSize_NormalizesAndResets(t *testing.T) {
	req := NewListRequest()
	req.SetPage(7)

	req.SetPageSize(33)

	if req.PageSize != DefaultPageSize {
		t.Errorf("unsupported page size should fall back to %d, got %d", DefaultPageSize, req.PageSize)
	}
	if req.Page != 1 {
		t.Errorf("page should reset after a page size change, got %d", req.Page)
	}

	for _, size := range PageSizes {
		req.SetPageSize(size)
		if req.PageSize != size {
			t.Errorf("page size %d should be accepted, got %d", size, req.PageSize)
		}
	}
}

func TestDayBounds_SameDayRangeCoversWholeDay(t *testing.T) {
	day := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	from, to := DayBounds(&day, &day)

	if from.Hour() != 0 || from.Minute() != 0 || from.Second() != 0 || from.Nanosecond() != 0 {
		t.Errorf("from should floor to start of day, got %v", from)
	}
	if to.Hour() != 23 || to.Minute() != 59 || to.Second() != 59 {
		t.Errorf("to should ceil to end of day, got %v", to)
	}

	morning := time.Date(2025, 6, 10, 0, 0, 1, 0, time.UTC)
	evening := time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)
	if morning.Before(*from) || morning.After(*to) {
		t.Error("a timestamp early in the day should fall inside a same-day range")
	}
	if evening.Before(*from) || evening.After(*to) {
		t.Error("a timestamp late in the day should fall inside a same-day range")
	}
}

func TestFilterKey_IndependentOfPage(t *testing.T) {
	a := NewListRequest()
	a.SetEquality("status", "open")
	a.SetSearch("abc")

	b := a.Clone()
	b.SetPage(4)
	b.SetPageSize(50)

	if a.FilterKey() != b.FilterKey() {
		t.Error("filter key should not change with page or page size")
	}

	b.SetEquality("status", "resolved")
	if a.FilterKey() == b.FilterKey() {
		t.Error("filter key should change when a filter value changes")
	}
}

func TestFilterKey_IgnoresAllSentinel(t *testing.T) {
	a := NewListRequest()
	b := NewListRequest()
	b.SetEquality("status", FilterAll)

	if a.FilterKey() != b.FilterKey() {
		t.Error("the all sentinel should not contribute to the filter key")
	}
}

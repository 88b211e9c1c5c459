package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type row struct {
	ID     int
	Name   string
	Status string
}

func makeRows(n int) []row {
	rows := make([]row, n)
	for i := range rows {
		status := "open"
		if i%3 == 0 {
			status = "done"
		}
		rows[i] = row{ID: i, Name: fmt.Sprintf("row-%d", i), Status: status}
	}
	return rows
}

type stats struct {
	Total int
	Done  int
}

func aggregateRows(rows []row) stats {
	s := stats{Total: len(rows)}
	for _, r := range rows {
		if r.Status == "done" {
			s.Done++
		}
	}
	return s
}

func staticFetch(rows []row) FetchFunc[row] {
	return func(ctx context.Context, conds *Conditions) ([]row, error) {
		return rows, nil
	}
}

func TestPaginate_LastPartialPage(t *testing.T) {
	rows := makeRows(23)

	page := Paginate(rows, 3, 10)

	if len(page) != 3 {
		t.Errorf("23 rows at page size 10: page 3 should hold 3 items, got %d", len(page))
	}
	if page[0].ID != 20 {
		t.Errorf("page 3 should start at row 20, got %d", page[0].ID)
	}
}

func TestPaginate_OutOfRangeEmpty(t *testing.T) {
	rows := makeRows(23)

	if got := Paginate(rows, 4, 10); len(got) != 0 {
		t.Errorf("out-of-range page should be empty, got %d items", len(got))
	}
}

func TestPaginate_PagesReconstructSet(t *testing.T) {
	rows := makeRows(23)

	var rebuilt []row
	for page := 1; ; page++ {
		chunk := Paginate(rows, page, 10)
		if len(chunk) == 0 {
			break
		}
		rebuilt = append(rebuilt, chunk...)
	}

	if len(rebuilt) != len(rows) {
		t.Fatalf("concatenated pages should reconstruct the set, got %d of %d", len(rebuilt), len(rows))
	}
	for i := range rows {
		if rebuilt[i].ID != rows[i].ID {
			t.Fatalf("row %d out of order after pagination", i)
		}
	}
}

func TestRun_TotalAndMetricsOverFullSet(t *testing.T) {
	rows := makeRows(23)
	p := New[row, stats]("test", FilterSpec{}, staticFetch(rows), aggregateRows)

	req := NewListRequest()
	req.SetPageSize(10)
	req.SetPage(3)

	result, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalCount != 23 {
		t.Errorf("total should be the full filtered count, got %d", result.TotalCount)
	}
	if len(result.PageItems) != 3 {
		t.Errorf("page 3 should hold 3 items, got %d", len(result.PageItems))
	}
	if result.Metrics.Total != 23 {
		t.Errorf("metrics should cover the full set, not the page: got total %d", result.Metrics.Total)
	}
}

func TestRun_ClientSideMatchAppliesToMetrics(t *testing.T) {
	rows := []row{
		{ID: 1, Name: "Alice Johnson", Status: "done"},
		{ID: 2, Name: "Bob Smith", Status: "open"},
		{ID: 3, Name: "Alicia Keys", Status: "done"},
	}
	p := New[row, stats]("test", FilterSpec{}, staticFetch(rows), aggregateRows,
		WithMatch[row, stats](func(r row, term string) bool {
			return MatchAny(term, r.Name)
		}),
	)

	req := NewListRequest()
	req.SetSearch("ali")

	result, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalCount != 2 {
		t.Errorf("residual match should filter the set, got total %d", result.TotalCount)
	}
	if result.Metrics.Total != 2 || result.Metrics.Done != 2 {
		t.Errorf("metrics should reflect the matched set, got %+v", result.Metrics)
	}
}

func TestRun_FetchErrorWrapped(t *testing.T) {
	sentinel := errors.New("connection refused")
	p := New[row, stats]("orders", FilterSpec{},
		func(ctx context.Context, conds *Conditions) ([]row, error) { return nil, sentinel },
		aggregateRows,
	)

	_, err := p.Run(context.Background(), NewListRequest())
	if err == nil {
		t.Fatal("expected an error")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a FetchError, got %T", err)
	}
	if fe.View != "orders" {
		t.Errorf("fetch error should name the view, got %q", fe.View)
	}
	if !errors.Is(err, sentinel) {
		t.Error("fetch error should unwrap to the underlying cause")
	}
}

func TestPercentage_ZeroDenominator(t *testing.T) {
	if got := Percentage(5, 0); got != 0 {
		t.Errorf("zero total should yield 0, got %v", got)
	}
	if got := Average(10, 0); got != 0 {
		t.Errorf("zero count should yield 0, got %v", got)
	}
	if got := SuccessRate(0, 0); got != 0 {
		t.Errorf("zero-over-zero success rate should be 0, got %v", got)
	}
}

func TestPercentage_Rounding(t *testing.T) {
	if got := Percentage(1, 3); got != 33.3 {
		t.Errorf("expected 33.3, got %v", got)
	}
	if got := Percentage(2, 3); got != 66.7 {
		t.Errorf("expected 66.7, got %v", got)
	}
	if got := Percentage(23, 23); got != 100 {
		t.Errorf("expected 100, got %v", got)
	}
}

func TestCountBySumBy(t *testing.T) {
	rows := makeRows(6)

	counts := CountBy(rows, func(r row) string { return r.Status })
	if counts["done"] != 2 || counts["open"] != 4 {
		t.Errorf("unexpected counts: %v", counts)
	}

	sum := SumBy(rows, func(r row) float64 { return float64(r.ID) })
	if sum != 15 {
		t.Errorf("expected sum 15, got %v", sum)
	}
}

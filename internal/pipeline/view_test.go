package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingFetch struct {
	mu    sync.Mutex
	calls int
	rows  []row
	err   error
	block chan struct{}
}

func (f *countingFetch) fetch(ctx context.Context, conds *Conditions) ([]row, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.rows, f.err
}

func (f *countingFetch) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestView(f *countingFetch) *View[row, stats] {
	return NewView(New[row, stats]("test", FilterSpec{}, f.fetch, aggregateRows))
}

func TestView_PageChangeDoesNotRefetch(t *testing.T) {
	f := &countingFetch{rows: makeRows(23)}
	v := newTestView(f)
	v.SetPageSize(10)

	if _, err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	before := v.Snapshot()

	v.SetPage(3)
	after := v.Snapshot()

	if f.count() != 1 {
		t.Errorf("a page change must not trigger a fetch, got %d fetches", f.count())
	}
	if len(after.PageItems) != 3 {
		t.Errorf("page 3 should hold 3 items, got %d", len(after.PageItems))
	}
	if after.TotalCount != before.TotalCount {
		t.Error("total must not change on a page change")
	}
	if after.Metrics != before.Metrics {
		t.Error("metrics must not be recomputed on a page change")
	}
}

func TestView_OverlappingRefreshDeclined(t *testing.T) {
	f := &countingFetch{rows: makeRows(5), block: make(chan struct{})}
	v := newTestView(f)

	done := make(chan Result[row, stats], 1)
	go func() {
		res, _ := v.Refresh(context.Background())
		done <- res
	}()

	// Wait until the first refresh is holding the fetch.
	for f.count() == 0 {
		time.Sleep(time.Millisecond)
	}

	res, err := v.Refresh(context.Background())
	if err != nil {
		t.Fatalf("declined refresh should not error: %v", err)
	}
	if !res.Loading {
		t.Error("declined refresh should report the loading snapshot")
	}
	if f.count() != 1 {
		t.Errorf("overlapping refresh must not start a second fetch, got %d", f.count())
	}

	close(f.block)
	final := <-done
	if final.TotalCount != 5 {
		t.Errorf("first refresh should complete normally, got total %d", final.TotalCount)
	}
}

func TestView_StaleCompletionDiscarded(t *testing.T) {
	f := &countingFetch{rows: makeRows(3)}
	v := newTestView(f)

	if _, err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	fresh := v.Snapshot()

	// Simulate a fetch that started before the applied one finishing late.
	v.mu.Lock()
	v.nextTok = 0
	v.applied = 5
	v.mu.Unlock()
	f.rows = makeRows(10)

	res, err := v.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if res.TotalCount != fresh.TotalCount {
		t.Errorf("a stale completion must not overwrite a fresher result, got total %d", res.TotalCount)
	}
	if got := v.Snapshot(); got.TotalCount != fresh.TotalCount {
		t.Errorf("view state should keep the fresher result, got total %d", got.TotalCount)
	}
}

func TestView_FilterChangeDiscardsInFlightResult(t *testing.T) {
	f := &countingFetch{rows: makeRows(6), block: make(chan struct{})}
	v := newTestView(f)

	done := make(chan Result[row, stats], 1)
	go func() {
		res, _ := v.Refresh(context.Background())
		done <- res
	}()
	for f.count() == 0 {
		time.Sleep(time.Millisecond)
	}

	// The filter moves on while the fetch is in flight; the completion's rows
	// belong to the old filter state and must not land.
	v.SetFilter("status", "done")
	close(f.block)

	res := <-done
	if res.TotalCount != 0 {
		t.Errorf("stale-filter completion must be discarded, got total %d", res.TotalCount)
	}
	if snap := v.Snapshot(); snap.TotalCount != 0 {
		t.Errorf("view state must not absorb a stale-filter result, got total %d", snap.TotalCount)
	}

	// A refresh for the new filter state proceeds normally.
	if _, err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := v.Snapshot(); got.TotalCount != 6 {
		t.Errorf("fresh refresh should land, got total %d", got.TotalCount)
	}
}

func TestView_ErrorKeepsPreviousState(t *testing.T) {
	f := &countingFetch{rows: makeRows(8)}
	v := newTestView(f)

	if _, err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	f.err = errors.New("store down")
	res, err := v.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected the fetch error to surface")
	}

	if res.TotalCount != 8 {
		t.Errorf("previous result should survive a failed fetch, got total %d", res.TotalCount)
	}
	if res.Loading {
		t.Error("loading must clear after a failed fetch")
	}
}

func TestView_SearchDebounce(t *testing.T) {
	f := &countingFetch{rows: makeRows(3)}
	v := newTestView(f)

	v.SetSearch("w", t0)
	if got := v.Request().Search; got != "" {
		t.Errorf("a too-short keystroke must not enter the request, got %q", got)
	}

	v.SetSearch("work", t0.Add(time.Second))
	if got := v.Request().Search; got != "" {
		t.Errorf("an unsettled keystroke must not enter the request, got %q", got)
	}

	v.SetSearch("work", t0.Add(2*time.Second))
	if got := v.Request().Search; got != "work" {
		t.Errorf("a settled term should enter the request, got %q", got)
	}
}

func TestView_ApplyLocalRecomputes(t *testing.T) {
	f := &countingFetch{rows: makeRows(4)}
	v := newTestView(f)

	if _, err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	v.ApplyLocal(func(rows []row) []row {
		out := append([]row(nil), rows...)
		out[1].Status = "done"
		return out
	})

	snap := v.Snapshot()
	if snap.Metrics.Done != 3 {
		t.Errorf("local merge should recompute metrics, got %+v", snap.Metrics)
	}
	if f.count() != 1 {
		t.Errorf("local merge must not fetch, got %d fetches", f.count())
	}
}

package pipeline

import (
	"context"
	"sync"
	"time"
)

// View is the stateful per-consumer wrapper around a Pipeline: it owns a
// ListRequest, a search debouncer, and the last good Result, matching the
// list-view lifecycle of the dashboard.
//
// Concurrency contract:
//   - Overlapping refreshes of the same view are declined, not queued: the
//     caller gets the last good snapshot flagged Loading.
//   - Each started fetch is assigned a monotonically increasing token; a
//     completion whose token is older than the last applied one is discarded,
//     so a slow stale fetch can never overwrite a fresher result.
//   - A completion whose FilterKey no longer matches the view's current
//     filter state is discarded too: its rows and metrics describe filters
//     that are no longer shown.
//   - A failed fetch leaves the previous Result in place (stale-while-error)
//     and clears the loading state; the error is returned for surfacing.
type View[T, M any] struct {
	mu   sync.Mutex
	pipe *Pipeline[T, M]
	req  ListRequest
	deb  *Debouncer

	last     Result[T, M]
	fullSet  []T
	haveData bool

	inFlight bool
	nextTok  uint64
	applied  uint64
}

func NewView[T, M any](pipe *Pipeline[T, M]) *View[T, M] {
	return &View[T, M]{
		pipe: pipe,
		req:  NewListRequest(),
		deb:  NewDebouncer(DefaultDebounceDelay, DefaultSearchMinLength),
	}
}

// SetSearch records a raw search keystroke. The request's search term only
// advances once the debouncer settles.
func (v *View[T, M]) SetSearch(raw string, at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deb.Push(raw, at)
	v.req.SetSearch(v.deb.Value(at))
}

func (v *View[T, M]) SetFilter(field, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.req.SetEquality(field, value)
}

func (v *View[T, M]) SetRange(field string, from, to *time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.req.SetRange(field, from, to)
}

// SetPage re-slices the cached filtered set without refetching: metrics and
// total depend only on filter state, so a page change must not recompute them.
func (v *View[T, M]) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.req.SetPage(page)
	v.resliceLocked()
}

func (v *View[T, M]) SetPageSize(size int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.req.SetPageSize(size)
	v.resliceLocked()
}

func (v *View[T, M]) Request() ListRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.req.Clone()
}

// Snapshot returns the current result without fetching.
func (v *View[T, M]) Snapshot() Result[T, M] {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.last
	out.Loading = v.inFlight
	return out
}

// Refresh fetches, aggregates and paginates for the current request state.
// If a refresh is already in flight the call is declined and the last good
// snapshot is returned with Loading set.
func (v *View[T, M]) Refresh(ctx context.Context) (Result[T, M], error) {
	v.mu.Lock()
	if v.inFlight {
		out := v.last
		out.Loading = true
		v.mu.Unlock()
		return out, nil
	}
	v.inFlight = true
	v.nextTok++
	token := v.nextTok
	req := v.req.Clone()
	v.mu.Unlock()

	rows, err := v.pipe.filteredRows(ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.inFlight = false

	if err != nil {
		// Keep the previous state in place; loading never hangs.
		out := v.last
		out.Loading = false
		return out, err
	}

	if token < v.applied {
		// A fresher result already landed; drop this one.
		return v.last, nil
	}
	if req.FilterKey() != v.req.FilterKey() {
		// The filters moved on while this fetch was in flight; its rows and
		// metrics belong to a filter state no longer shown.
		out := v.last
		out.Loading = false
		return out, nil
	}
	v.applied = token

	v.fullSet = rows
	v.haveData = true
	v.last = Result[T, M]{
		PageItems:  Paginate(rows, req.Page, req.PageSize),
		TotalCount: len(rows),
		Metrics:    v.pipe.aggregate(rows),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
	return v.last, nil
}

// ApplyLocal merges a mutation into the cached filtered set without a fetch,
// recomputing the page, total, and metrics from the merged set. Callers that
// use this still refetch afterwards; the merge only covers the gap.
func (v *View[T, M]) ApplyLocal(merge func([]T) []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.haveData {
		return
	}
	v.fullSet = merge(v.fullSet)
	v.last = Result[T, M]{
		PageItems:  Paginate(v.fullSet, v.req.Page, v.req.PageSize),
		TotalCount: len(v.fullSet),
		Metrics:    v.pipe.aggregate(v.fullSet),
		Page:       v.req.Page,
		PageSize:   v.req.PageSize,
		Loading:    v.inFlight,
	}
}

func (v *View[T, M]) resliceLocked() {
	if !v.haveData {
		return
	}
	v.last.PageItems = Paginate(v.fullSet, v.req.Page, v.req.PageSize)
	v.last.Page = v.req.Page
	v.last.PageSize = v.req.PageSize
}

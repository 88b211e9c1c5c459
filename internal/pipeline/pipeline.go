package pipeline

import (
	"context"
	"fmt"
	"time"
)

// FetchFunc returns the FULL row set matching the server-side conditions, in
// stable sort order (typically created_at DESC). No server-side pagination:
// totals and metrics are computed over the complete filtered set.
type FetchFunc[T any] func(ctx context.Context, conds *Conditions) ([]T, error)

// MatchFunc is the residual client-side predicate for search terms that span
// fields the store cannot filter (joined/derived fields).
type MatchFunc[T any] func(item T, term string) bool

// AggregateFunc computes the metrics value over the full filtered set. Must
// be a pure function of the rows.
type AggregateFunc[T, M any] func(rows []T) M

// Result is what a list view renders: exactly the rows for the current page,
// the pre-pagination total, and metrics over the full filtered set.
type Result[T, M any] struct {
	PageItems  []T  `json:"items"`
	TotalCount int  `json:"total"`
	Metrics    M    `json:"metrics"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Loading    bool `json:"loading"`
}

// Pipeline is the fetch-aggregate-paginate algorithm shared by every feature
// area: fetch the filtered set, apply the residual search predicate, count,
// aggregate, slice the requested page.
type Pipeline[T, M any] struct {
	name      string
	spec      FilterSpec
	fetch     FetchFunc[T]
	match     MatchFunc[T]
	aggregate AggregateFunc[T, M]
	recorder  Recorder
}

type Option[T, M any] func(*Pipeline[T, M])

// WithMatch defers free-text search to the given client-side predicate
// instead of the filter spec's server-side search columns.
func WithMatch[T, M any](match MatchFunc[T]) Option[T, M] {
	return func(p *Pipeline[T, M]) { p.match = match }
}

func WithRecorder[T, M any](r Recorder) Option[T, M] {
	return func(p *Pipeline[T, M]) { p.recorder = r }
}

func New[T, M any](name string, spec FilterSpec, fetch FetchFunc[T], aggregate AggregateFunc[T, M], opts ...Option[T, M]) *Pipeline[T, M] {
	p := &Pipeline[T, M]{
		name:      name,
		spec:      spec,
		fetch:     fetch,
		aggregate: aggregate,
		recorder:  NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline[T, M]) Name() string { return p.name }

// Run executes one full pass for the request and returns the page result.
func (p *Pipeline[T, M]) Run(ctx context.Context, req ListRequest) (Result[T, M], error) {
	req.Normalize()

	rows, err := p.filteredRows(ctx, req)
	if err != nil {
		var zero Result[T, M]
		return zero, err
	}

	return Result[T, M]{
		PageItems:  Paginate(rows, req.Page, req.PageSize),
		TotalCount: len(rows),
		Metrics:    p.aggregate(rows),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}, nil
}

// Export returns the full filtered set, pre-pagination, for CSV export.
func (p *Pipeline[T, M]) Export(ctx context.Context, req ListRequest) ([]T, error) {
	return p.filteredRows(ctx, req)
}

func (p *Pipeline[T, M]) filteredRows(ctx context.Context, req ListRequest) ([]T, error) {
	spec := p.spec
	residual := ""
	if p.match != nil {
		// Search spans fields the store cannot filter; keep it out of the
		// server predicates and apply it after the fetch.
		spec.SearchColumns = nil
		residual = req.Search
	}
	conds, _ := BuildConditions(req, spec)

	start := time.Now()
	rows, err := p.fetch(ctx, conds)
	p.recorder.FetchDuration(p.name, time.Since(start))
	if err != nil {
		p.recorder.FetchError(p.name)
		return nil, &FetchError{View: p.name, Err: err}
	}

	if residual != "" && p.match != nil {
		filtered := rows[:0:0]
		for _, row := range rows {
			if p.match(row, residual) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	p.recorder.ResultCount(p.name, len(rows))
	return rows, nil
}

// Paginate slices the current page out of an already filtered, sorted set.
// The last page may be shorter than pageSize; out-of-range pages are empty.
func Paginate[T any](rows []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// FetchError wraps a store failure, identifying which view's fetch failed.
type FetchError struct {
	View string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %s view: %v", e.View, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

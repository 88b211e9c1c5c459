package pipeline

import "time"

// FilterAll is the reserved equality-filter value meaning "do not filter on
// this field". It is never passed through as a real filter value.
const FilterAll = "all"

// PageSizes lists the accepted page sizes. Anything else falls back to
// DefaultPageSize.
var PageSizes = []int{10, 25, 50, 100}

const DefaultPageSize = 25

// DateRange filters a timestamp column to [From, To]. Bounds are normalized
// to day boundaries when the range is built from date pickers, so a same-day
// range covers the entire day.
type DateRange struct {
	Field string
	From  *time.Time
	To    *time.Time
}

// ListRequest carries the full filter/page state of one list view. Mutating
// any filter resets Page to 1 so a stale page from a previous filter set is
// never shown.
type ListRequest struct {
	Search   string
	Equality map[string]string
	Ranges   []DateRange
	Page     int
	PageSize int
}

func NewListRequest() ListRequest {
	return ListRequest{
		Equality: make(map[string]string),
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

func (r *ListRequest) SetSearch(term string) {
	if r.Search == term {
		return
	}
	r.Search = term
	r.Page = 1
}

func (r *ListRequest) SetEquality(field, value string) {
	if r.Equality == nil {
		r.Equality = make(map[string]string)
	}
	if r.Equality[field] == value {
		return
	}
	r.Equality[field] = value
	r.Page = 1
}

func (r *ListRequest) SetRange(field string, from, to *time.Time) {
	from, to = DayBounds(from, to)
	for i, rng := range r.Ranges {
		if rng.Field == field {
			r.Ranges[i].From = from
			r.Ranges[i].To = to
			r.Page = 1
			return
		}
	}
	r.Ranges = append(r.Ranges, DateRange{Field: field, From: from, To: to})
	r.Page = 1
}

func (r *ListRequest) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	r.Page = page
}

func (r *ListRequest) SetPageSize(size int) {
	if r.PageSize == size {
		return
	}
	r.PageSize = normalizePageSize(size)
	r.Page = 1
}

func (r *ListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	r.PageSize = normalizePageSize(r.PageSize)
}

func (r ListRequest) Clone() ListRequest {
	out := r
	out.Equality = make(map[string]string, len(r.Equality))
	for k, v := range r.Equality {
		out.Equality[k] = v
	}
	out.Ranges = append([]DateRange(nil), r.Ranges...)
	return out
}

// FilterKey returns a value identifying the filter state (search, equality,
// ranges) independent of page and page size. Metrics depend only on this.
func (r ListRequest) FilterKey() string {
	key := "s=" + r.Search
	for _, k := range sortedKeys(r.Equality) {
		if v := r.Equality[k]; v != "" && v != FilterAll {
			key += ";" + k + "=" + v
		}
	}
	for _, rng := range r.Ranges {
		key += ";" + rng.Field
		if rng.From != nil {
			key += ">" + rng.From.Format(time.RFC3339Nano)
		}
		if rng.To != nil {
			key += "<" + rng.To.Format(time.RFC3339Nano)
		}
	}
	return key
}

func normalizePageSize(size int) int {
	for _, s := range PageSizes {
		if size == s {
			return size
		}
	}
	return DefaultPageSize
}

// DayBounds floors the start of a date range to 00:00:00.000 and ceils the
// end to 23:59:59.999 local time, so a same-day start/end range is inclusive
// of the entire day.
func DayBounds(from, to *time.Time) (*time.Time, *time.Time) {
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		from = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999000000, to.Location())
		to = &t
	}
	return from, to
}

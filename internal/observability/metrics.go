package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "opsboard_view_fetch_duration_seconds",
			Help: "Duration of list-view fetches against the backing store",
		},
		[]string{"view"},
	)

	resultCount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opsboard_view_result_rows",
			Help:    "Filtered row-set sizes per list view, pre-pagination",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"view"},
	)

	fetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsboard_view_fetch_errors_total",
			Help: "Total failed list-view fetches",
		},
		[]string{"view"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsboard_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)
)

// PipelineRecorder implements pipeline.Recorder on prometheus collectors.
type PipelineRecorder struct{}

func (PipelineRecorder) FetchDuration(view string, d time.Duration) {
	fetchDuration.WithLabelValues(view).Observe(d.Seconds())
}

func (PipelineRecorder) ResultCount(view string, n int) {
	resultCount.WithLabelValues(view).Observe(float64(n))
}

func (PipelineRecorder) FetchError(view string) {
	fetchErrors.WithLabelValues(view).Inc()
}

// CountRequest records one served HTTP request.
func CountRequest(method, path, status string) {
	httpRequests.WithLabelValues(method, path, status).Inc()
}

package pipeline

import "time"

// Recorder receives pipeline observations. The prometheus-backed
// implementation lives in internal/observability.
type Recorder interface {
	FetchDuration(view string, d time.Duration)
	ResultCount(view string, n int)
	FetchError(view string)
}

type NoopRecorder struct{}

func (NoopRecorder) FetchDuration(string, time.Duration) {}
func (NoopRecorder) ResultCount(string, int)             {}
func (NoopRecorder) FetchError(string)                   {}

package pipeline

import "time"

const (
	DefaultDebounceDelay   = 500 * time.Millisecond
	DefaultSearchMinLength = 2
)

// Debouncer stabilizes a rapidly-changing search string. The settled value
// only advances once no keystroke has arrived for the configured delay, and
// only when the candidate is either empty or at least minLength runes long.
// An intermediate value below minLength never propagates, so clearing the
// input is immediate (after the quiet period) but a half-typed token is not.
//
// Time is passed in explicitly; the type performs no scheduling of its own.
type Debouncer struct {
	delay     time.Duration
	minLength int

	raw   string
	rawAt time.Time
	has   bool

	settled string
}

func NewDebouncer(delay time.Duration, minLength int) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	if minLength < 0 {
		minLength = 0
	}
	return &Debouncer{delay: delay, minLength: minLength}
}

// Push records a keystroke: the raw input became value at time at.
// Re-reporting an unchanged value keeps the original keystroke time, so
// polling the raw input does not restart the quiet period.
func (d *Debouncer) Push(value string, at time.Time) {
	if d.has && value == d.raw {
		return
	}
	d.raw = value
	d.rawAt = at
	d.has = true
}

// Value returns the settled search term as of time now, promoting the raw
// input if the quiet period has elapsed and the length gate passes.
func (d *Debouncer) Value(now time.Time) string {
	if d.has && now.Sub(d.rawAt) >= d.delay {
		if len(d.raw) == 0 || len(d.raw) >= d.minLength {
			d.settled = d.raw
		}
	}
	return d.settled
}

// Raw returns the most recent un-debounced input.
func (d *Debouncer) Raw() string {
	return d.raw
}

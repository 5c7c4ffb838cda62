package monitor

import "time"

// DefaultInterval is the minimum time between classifications.
const DefaultInterval = 2 * time.Second

// Throttle decides when a frame should be classified.
// The first check after Reset is always due.
type Throttle struct {
	Interval time.Duration

	last   time.Time
	marked bool
}

// NewThrottle creates a throttle; non-positive intervals use DefaultInterval.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle{Interval: interval}
}

// Due reports whether at least Interval has passed since the last attempt.
func (t *Throttle) Due(now time.Time) bool {
	return !t.marked || now.Sub(t.last) >= t.Interval
}

// Mark records an attempt at now, successful or not.
func (t *Throttle) Mark(now time.Time) {
	t.last = now
	t.marked = true
}

// Last returns the time of the last attempt.
func (t *Throttle) Last() (time.Time, bool) {
	return t.last, t.marked
}

// Reset forgets the last attempt.
func (t *Throttle) Reset() {
	t.last = time.Time{}
	t.marked = false
}

// Package staleness tracks how long it has been since a source last produced
// an update.
package staleness

import (
	"fmt"
	"time"
)

// DefaultThresholdMinutes is used when no threshold is configured.
const DefaultThresholdMinutes = 15

// Tracker is either untracked (no update recorded yet) or tracking the
// instant of the last update. It never reports staleness while untracked.
// Tracker is not safe for concurrent use; callers hold their own lock.
type Tracker struct {
	threshold  time.Duration
	lastUpdate time.Time
	tracking   bool
	now        func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New returns an untracked tracker with a threshold in minutes.
func New(thresholdMinutes int, opts ...Option) *Tracker {
	if thresholdMinutes < 0 {
		thresholdMinutes = 0
	}
	t := &Tracker{
		threshold: time.Duration(thresholdMinutes) * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Threshold returns the configured staleness threshold.
func (t *Tracker) Threshold() time.Duration {
	return t.threshold
}

// RecordUpdate moves the tracker into tracking or refreshes the instant.
func (t *Tracker) RecordUpdate() {
	t.lastUpdate = t.now()
	t.tracking = true
}

// IsTracking reports whether at least one update has been recorded.
func (t *Tracker) IsTracking() bool {
	return t.tracking
}

// SinceUpdate returns the time since the last update, if tracking.
func (t *Tracker) SinceUpdate() (time.Duration, bool) {
	if !t.tracking {
		return 0, false
	}
	return t.now().Sub(t.lastUpdate), true
}

// Check returns the elapsed time and true once it exceeds the threshold.
func (t *Tracker) Check() (time.Duration, bool) {
	elapsed, ok := t.SinceUpdate()
	if !ok || elapsed <= t.threshold {
		return 0, false
	}
	return elapsed, true
}

// Staleness returns the formatted elapsed time when stale.
func (t *Tracker) Staleness() (string, bool) {
	elapsed, stale := t.Check()
	if !stale {
		return "", false
	}
	return FormatDuration(elapsed), true
}

// FormatDuration renders whole minutes as "Nm" below an hour and "Hh" or
// "HhMm" above.
func FormatDuration(d time.Duration) string {
	total := int(d / time.Minute)
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	hours, minutes := total/60, total%60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

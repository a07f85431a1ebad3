package staleness

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFake() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestTracker_UntrackedNeverStale(t *testing.T) {
	clock := newFake()
	tr := New(0, WithClock(clock.Now))
	clock.Advance(48 * time.Hour)

	if tr.IsTracking() {
		t.Error("new tracker should be untracked")
	}
	if _, stale := tr.Check(); stale {
		t.Error("untracked tracker reported stale")
	}
	if _, ok := tr.SinceUpdate(); ok {
		t.Error("SinceUpdate should be unavailable while untracked")
	}
}

func TestTracker_ZeroThreshold(t *testing.T) {
	clock := newFake()
	tr := New(0, WithClock(clock.Now))
	tr.RecordUpdate()

	if _, stale := tr.Check(); stale {
		t.Error("no time has elapsed; should be fresh")
	}
	clock.Advance(time.Nanosecond)
	if _, stale := tr.Check(); !stale {
		t.Error("threshold 0 should be stale after any positive elapsed time")
	}
}

func TestTracker_Threshold(t *testing.T) {
	clock := newFake()
	tr := New(15, WithClock(clock.Now))
	tr.RecordUpdate()

	clock.Advance(15 * time.Minute)
	if _, stale := tr.Check(); stale {
		t.Error("exactly at threshold should still be fresh")
	}

	clock.Advance(time.Minute)
	got, stale := tr.Staleness()
	if !stale || got != "16m" {
		t.Errorf("Staleness() = (%q, %v), want (16m, true)", got, stale)
	}

	tr.RecordUpdate()
	if _, stale := tr.Check(); stale {
		t.Error("RecordUpdate should refresh the instant")
	}
}

func TestNew_DefaultThreshold(t *testing.T) {
	if got := New(DefaultThresholdMinutes).Threshold(); got != 15*time.Minute {
		t.Errorf("Threshold() = %v", got)
	}
	if got := New(-5).Threshold(); got != 0 {
		t.Errorf("negative threshold should clamp to 0, got %v", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m"},
		{59 * time.Second, "0m"},
		{5 * time.Minute, "5m"},
		{59 * time.Minute, "59m"},
		{60 * time.Minute, "1h"},
		{90 * time.Minute, "1h30m"},
		{2*time.Hour + 59*time.Second, "2h"},
		{25*time.Hour + time.Minute, "25h1m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

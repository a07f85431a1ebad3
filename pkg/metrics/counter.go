package metrics

import "sync/atomic"

// Counter is a monotonically increasing event count.
type Counter struct {
	name  string
	value atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Add increments the counter by n.
func (c *Counter) Add(n int) {
	if !Enabled() || n <= 0 {
		return
	}
	c.value.Add(int64(n))
}

// Name returns the counter name.
func (c *Counter) Name() string {
	return c.name
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Reset sets the counter back to zero.
func (c *Counter) Reset() {
	c.value.Store(0)
}

// Global counters.
var (
	EventsDrained     = newCounter("events_drained")
	OperationsEmitted = newCounter("operations_emitted")
	RecordsSkipped    = newCounter("records_skipped")
)

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{EventsDrained, OperationsEmitted, RecordsSkipped}
}

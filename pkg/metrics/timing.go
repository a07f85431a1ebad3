// Package metrics records how long the stages of a sync cycle take and how
// much work they do: scanning a task list, the dependency pass, reconciling
// and applying operations to the store.
//
// Collection is off unless TASKMIRROR_METRICS=1 or SetEnabled(true):
//
//	func FullScan() {
//	    defer metrics.Timer(metrics.ReconcileDuration)()
//	    // ...
//	}
package metrics

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TASKMIRROR_METRICS") == "1")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns collection on or off.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric summarizes the durations of one stage.
type TimingMetric struct {
	name string

	mu    sync.Mutex
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
	last  time.Duration
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 || d < m.min {
		m.min = d
	}
	if d > m.max {
		m.max = d
	}
	m.count++
	m.total += d
	m.last = d
}

// Name returns the metric name.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Stats returns a consistent snapshot.
func (m *TimingMetric) Stats() TimingStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := TimingStats{
		Name:  m.name,
		Count: m.count,
		Total: m.total,
		Min:   m.min,
		Max:   m.max,
		Last:  m.last,
	}
	if m.count > 0 {
		s.Avg = m.total / time.Duration(m.count)
	}
	return s
}

// Reset drops all samples.
func (m *TimingMetric) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count, m.total, m.min, m.max, m.last = 0, 0, 0, 0, 0
}

// TimingStats is a snapshot of one TimingMetric.
type TimingStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total_ns"`
	Avg   time.Duration `json:"avg_ns"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
	Last  time.Duration `json:"last_ns"`
}

// Timer starts timing m; call the returned func when the stage ends.
func Timer(m *TimingMetric) func() {
	if m == nil || !Enabled() {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Stage timings.
var (
	ScanDuration      = newTimingMetric("source_scan")
	GraphDuration     = newTimingMetric("dependency_graph")
	ReconcileDuration = newTimingMetric("reconcile")
	ApplyDuration     = newTimingMetric("store_apply")
)

// AllTimingMetrics lists the stage timings in pipeline order.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{ScanDuration, GraphDuration, ReconcileDuration, ApplyDuration}
}

// ResetAll clears every timing and counter.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.Reset()
	}
}

// WriteReport prints the stages that ran and the non-zero counters.
func WriteReport(w io.Writer) {
	for _, m := range AllTimingMetrics() {
		s := m.Stats()
		if s.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "%-18s n=%-5d avg=%-10s max=%-10s total=%s\n",
			s.Name, s.Count, s.Avg.Round(time.Microsecond), s.Max.Round(time.Microsecond), s.Total.Round(time.Microsecond))
	}
	for _, c := range AllCounters() {
		if v := c.Value(); v > 0 {
			fmt.Fprintf(w, "%-18s %d\n", c.Name(), v)
		}
	}
}

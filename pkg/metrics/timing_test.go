package metrics

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimingMetric_Record(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")

	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Errorf("Count = %d, want 2", s.Count)
	}
	if s.Max != 4*time.Millisecond {
		t.Errorf("Max = %v, want 4ms", s.Max)
	}
	if s.Min != 2*time.Millisecond {
		t.Errorf("Min = %v, want 2ms", s.Min)
	}
	if s.Avg != 3*time.Millisecond {
		t.Errorf("Avg = %v, want 3ms", s.Avg)
	}
	if s.Last != 4*time.Millisecond {
		t.Errorf("Last = %v, want 4ms", s.Last)
	}

	m.Reset()
	if m.Count() != 0 {
		t.Errorf("Count after Reset = %d", m.Count())
	}
}

func TestTimingMetric_Concurrent(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(time.Microsecond)
		}()
	}
	wg.Wait()

	if m.Count() != 50 {
		t.Errorf("Count = %d, want 50", m.Count())
	}
}

func TestTimer_Disabled(t *testing.T) {
	SetEnabled(false)

	m := newTimingMetric("off")
	Timer(m)()
	if m.Count() != 0 {
		t.Errorf("disabled Timer recorded %d samples", m.Count())
	}
}

func TestWriteReport(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	t.Cleanup(ResetAll)

	ScanDuration.Record(time.Millisecond)
	OperationsEmitted.Add(5)
	EventsDrained.Add(0)

	var buf bytes.Buffer
	WriteReport(&buf)
	out := buf.String()

	if !strings.Contains(out, "source_scan") {
		t.Errorf("report missing scan timing: %q", out)
	}
	if !strings.Contains(out, "operations_emitted") {
		t.Errorf("report missing counter: %q", out)
	}
	if strings.Contains(out, "events_drained") {
		t.Errorf("report should omit zero counters: %q", out)
	}
}

package reconcile

import (
	"sync"
	"time"

	"github.com/vanderheijden86/taskmirror/pkg/loader"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
	"github.com/vanderheijden86/taskmirror/pkg/staleness"
	"github.com/vanderheijden86/taskmirror/pkg/testutil"
)

type tb = testutil.TB

func writeTask(t tb, dir, id, subject string, status model.Status, blockedBy ...string) string {
	t.Helper()
	return testutil.WriteTask(t, dir, testutil.NewTask(id, subject, status, blockedBy...))
}

func kinds(ops []mirror.Operation) []mirror.Kind {
	out := make([]mirror.Kind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}

func newEngine(t tb, dir string) *Engine {
	t.Helper()
	st := NewState()
	st.reset(Source{ID: "abc", Path: dir, DisplayName: "abc"}, staleness.New(staleness.DefaultThresholdMinutes))
	return NewEngine(st, loaderOpts())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func loaderOpts() loader.ScanOptions {
	return loader.ScanOptions{WarningHandler: func(string) {}}
}

package reconcile

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/taskmirror/pkg/debug"
	"github.com/vanderheijden86/taskmirror/pkg/loader"
	"github.com/vanderheijden86/taskmirror/pkg/metrics"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/staleness"
	"github.com/vanderheijden86/taskmirror/pkg/watcher"
)

// ErrNoSource is returned by Select for a source without an id or path.
var ErrNoSource = errors.New("no task list selected")

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithStalenessThreshold sets the header staleness threshold in minutes.
func WithStalenessThreshold(minutes int) SessionOption {
	return func(s *Session) {
		s.thresholdMinutes = minutes
	}
}

// WithClock replaces time.Now for staleness tracking.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDebounce sets the watcher's quiet period.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		s.watchOpts = append(s.watchOpts, watcher.WithDebounceDuration(d))
	}
}

// WithPollInterval sets the interval used when the watcher polls.
func WithPollInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		s.watchOpts = append(s.watchOpts, watcher.WithPollInterval(d))
	}
}

// WithForcePoll makes the watcher poll instead of using filesystem events.
func WithForcePoll(force bool) SessionOption {
	return func(s *Session) {
		s.watchOpts = append(s.watchOpts, watcher.WithForcePoll(force))
	}
}

// WithNotifier registers a callback run after each delivered event batch.
// It is called from the watcher goroutine and must not block.
func WithNotifier(fn func()) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.notify = fn
		}
	}
}

// WithScanOptions configures the loader used by full scans.
func WithScanOptions(opts loader.ScanOptions) SessionOption {
	return func(s *Session) {
		s.scanOpts = opts
	}
}

// Session owns the watcher for the selected source and hands out mirror
// operations through Poll. Select, Poll and Stop may be called from
// different goroutines.
type Session struct {
	state  *State
	engine *Engine

	thresholdMinutes int
	now              func() time.Time
	notify           func()
	watchOpts        []watcher.WatcherOption
	scanOpts         loader.ScanOptions

	mu           sync.Mutex
	watch        *watcher.Watcher
	events       <-chan watcher.Event
	disconnected atomic.Bool
}

// NewSession returns a session with nothing selected.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		state:            NewState(),
		thresholdMinutes: staleness.DefaultThresholdMinutes,
		now:              time.Now,
		notify:           func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = NewEngine(s.state, s.scanOpts)
	return s
}

// State exposes the correlation model.
func (s *Session) State() *State {
	return s.state
}

// Select makes src the mirrored source. Any previous watcher is stopped and
// all correlation state is reset. When the watch cannot be established the
// matching guidance is queued and the classified error returned; otherwise
// a full scan is requested for the next Poll.
func (s *Session) Select(src Source) error {
	if src.ID == "" || src.Path == "" {
		return ErrNoSource
	}
	s.stopWatcher()

	tracker := staleness.New(s.thresholdMinutes, staleness.WithClock(s.now))
	s.state.reset(src, tracker)
	s.disconnected.Store(false)

	opts := append([]watcher.WatcherOption{}, s.watchOpts...)
	opts = append(opts,
		watcher.WithNotifier(s.notify),
		watcher.WithOnError(s.watchFailed),
	)

	w, err := watcher.NewWatcher(src.Path, opts...)
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		we := watcher.ClassifyError(err)
		if we.Kind == watcher.KindPathNotFound {
			s.state.showGuidance(GuidanceNoSources, mirror.NoSourcesGuidance())
		} else {
			s.state.showGuidance(GuidanceError,
				mirror.ErrorGuidance(mirror.MsgWatcherFailed, we.Msg, mirror.MsgRestartAction))
		}
		debug.Log("session: watch %s failed: %v", src.Path, we)
		return we
	}

	s.mu.Lock()
	s.watch = w
	s.events = w.Events()
	s.mu.Unlock()

	if len(loader.ScanDirWithOptions(src.Path, s.scanOpts)) == 0 {
		s.state.showGuidance(GuidanceEmptySource, mirror.EmptySourceGuidance(src.DisplayName))
	}

	s.state.requestScan()
	debug.Log("session: selected %s (%s)", src.ID, src.Path)
	return nil
}

// ShowNoSources queues the no-sources guidance.
func (s *Session) ShowNoSources() {
	s.state.showGuidance(GuidanceNoSources, mirror.NoSourcesGuidance())
}

// Seed adopts previously mirrored items for the selected source.
func (s *Session) Seed(items []SeedItem) int {
	return s.state.Seed(items)
}

// RequestFullScan makes the next Poll rescan the whole source.
func (s *Session) RequestFullScan() {
	s.state.requestScan()
}

// Poll returns the operations accumulated since the last call. Queued
// guidance operations are returned on their own and only once. Otherwise a
// requested full scan runs first, followed by every event that has already
// arrived; Poll never waits for new events.
func (s *Session) Poll() []mirror.Operation {
	if pending := s.state.takePending(); len(pending) > 0 {
		metrics.OperationsEmitted.Add(len(pending))
		return pending
	}

	var ops []mirror.Operation
	if s.state.takeScanRequest() {
		ops = append(ops, s.engine.FullScan()...)
	}

	events := s.drain()
	metrics.EventsDrained.Add(len(events))
	ops = append(ops, s.engine.Apply(events)...)

	if hdr, ok := s.headerRefresh(len(ops) > 0); ok {
		ops = append(ops, hdr)
	}

	metrics.OperationsEmitted.Add(len(ops))
	return ops
}

// headerRefresh rewrites the header when it is stale or when anything else
// changed, so the staleness suffix appears and disappears.
func (s *Session) headerRefresh(changed bool) (mirror.Operation, bool) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.selected == nil || !st.headerKnown || !st.tracker.IsTracking() {
		return mirror.Operation{}, false
	}
	staleFor, stale := st.tracker.Staleness()
	if !stale && !changed {
		return mirror.Operation{}, false
	}
	return mirror.UpdateHeader(st.selected.ID, st.selected.DisplayName, staleFor, stale), true
}

func (s *Session) drain() []watcher.Event {
	s.mu.Lock()
	ch := s.events
	s.mu.Unlock()
	if ch == nil {
		return nil
	}

	var events []watcher.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				s.mu.Lock()
				if s.events == ch {
					s.events = nil
				}
				s.mu.Unlock()
				s.disconnected.Store(true)
				debug.Log("session: watcher channel closed")
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

// Disconnected reports whether the watcher went away without Stop.
func (s *Session) Disconnected() bool {
	return s.disconnected.Load()
}

// Watching reports whether a watcher is running and whether it polls.
func (s *Session) Watching() (running, polling bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watch == nil {
		return false, false
	}
	return s.watch.IsStarted(), s.watch.IsPolling()
}

// Stop releases the watcher. The session can be reused with Select.
func (s *Session) Stop() {
	s.stopWatcher()
}

func (s *Session) stopWatcher() {
	s.mu.Lock()
	w := s.watch
	s.watch = nil
	s.events = nil
	s.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}

func (s *Session) watchFailed(err error) {
	if errors.Is(err, watcher.ErrOverflow) {
		debug.Log("session: event queue overflowed, rescanning")
		s.state.requestScan()
		return
	}
	debug.Log("session: watcher error: %v", err)
}

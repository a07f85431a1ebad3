// Package watcher observes a task source directory and emits one debounced
// Event per affected record file.
//
// A single worker goroutine owns the fsnotify handle (or the polling ticker
// on filesystems where inotify is unreliable) and is the only writer to the
// event channel. Stop cancels the worker, waits for it to exit, releases the
// handle and closes the channel.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/taskmirror/pkg/debug"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

const (
	// DefaultPollInterval is the polling interval for fallback mode.
	DefaultPollInterval = 2 * time.Second

	// DefaultBufferSize is the capacity of the event channel.
	DefaultBufferSize = 256

	// ForcePollEnvVar forces polling mode when truthy.
	ForcePollEnvVar = "TASKMIRROR_FORCE_POLLING"
)

// EventKind is the domain meaning of a filesystem change.
type EventKind int

const (
	Changed EventKind = iota + 1
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event reports that a record file was created/modified or removed.
type Event struct {
	Kind EventKind
	Path string
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Kind, filepath.Base(e.Path))
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the coalescing window.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// WithNotifier sets a callback invoked by the worker right after it enqueues
// a batch of events. It is a wake-up hint for a poll-driven consumer.
func WithNotifier(fn func()) WatcherOption {
	return func(w *Watcher) {
		if fn != nil {
			w.notify = fn
		}
	}
}

// WithOnError sets the callback for runtime watch errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		if fn != nil {
			w.onError = fn
		}
	}
}

// WithExtension sets the record file extension (default ".json").
func WithExtension(ext string) WatcherOption {
	return func(w *Watcher) {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.ext = ext
	}
}

// WithBufferSize sets the event channel capacity.
func WithBufferSize(n int) WatcherOption {
	return func(w *Watcher) {
		if n > 0 {
			w.bufferSize = n
		}
	}
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

// Watcher monitors one directory for record changes.
type Watcher struct {
	dir              string
	ext              string
	debounceDuration time.Duration
	pollInterval     time.Duration
	bufferSize       int
	notify           func()
	onError          func(error)
	forcePoll        bool
	forcePollEnv     bool
	fsType           FilesystemType

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	useFallback bool
	events      chan Event
	flushCh     chan struct{}

	pendingMu sync.Mutex
	pending   map[string]EventKind
	order     []string
	snapshot  map[string]fileStamp

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex
}

// NewWatcher creates a watcher for dir. Nothing is observed until Start.
func NewWatcher(dir string, opts ...WatcherOption) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:              absDir,
		ext:              model.RecordExt,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		bufferSize:       DefaultBufferSize,
		notify:           func() {},
		onError:          func(error) {},
	}

	for _, opt := range opts {
		opt(w)
	}

	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start establishes the watch and launches the worker goroutine. Failures are
// returned as *WatchError.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.dir)
	if err != nil {
		return ClassifyError(err)
	}
	if !info.IsDir() {
		return ClassifyError(fmt.Errorf("%s: %w", w.dir, ErrNotDirectory))
	}

	w.useFallback = false
	w.forcePollEnv = envBool(ForcePollEnvVar)
	w.fsType = DetectFilesystemType(w.dir)
	if w.forcePoll || w.forcePollEnv || isRemoteFilesystem(w.fsType) {
		w.useFallback = true
	}

	var (
		fsEvents <-chan fsnotify.Event
		fsErrors <-chan error
		ticker   *time.Ticker
	)

	if w.useFallback {
		w.snapshot = w.scanSnapshot()
		ticker = time.NewTicker(w.pollInterval)
	} else {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return ClassifyError(err)
		}
		if err := fsw.Add(w.dir); err != nil {
			fsw.Close()
			return ClassifyError(err)
		}
		w.fsWatcher = fsw
		fsEvents, fsErrors = fsw.Events, fsw.Errors
	}

	w.pending = make(map[string]EventKind)
	w.order = nil
	w.events = make(chan Event, w.bufferSize)
	w.flushCh = make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(ctx, w.events, w.flushCh, fsEvents, fsErrors, ticker)

	w.started = true
	debug.Log("watcher: started on %s (polling=%v, fs=%s)", w.dir, w.useFallback, w.fsType)
	return nil
}

// Stop cancels the worker and blocks until it has exited and the watch
// handle is released. The event channel is closed afterwards. Stop is
// idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.cancel()
	w.debouncer.Cancel()
	fsw := w.fsWatcher
	w.fsWatcher = nil
	events := w.events
	w.mu.Unlock()

	w.wg.Wait()
	if fsw != nil {
		fsw.Close()
	}
	close(events)
	debug.Log("watcher: stopped on %s", w.dir)
}

// Events returns the channel of debounced events. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.events
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Path returns the watched directory.
func (w *Watcher) Path() string {
	return w.dir
}

// FilesystemType returns the best-effort filesystem classification.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used in polling mode.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) run(ctx context.Context, out chan<- Event, flushCh chan struct{},
	fsEvents <-chan fsnotify.Event, fsErrors <-chan error, ticker *time.Ticker) {
	defer w.wg.Done()

	var tick <-chan time.Time
	if ticker != nil {
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			w.handleFsEvent(ev, flushCh)

		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.onError(err)

		case <-tick:
			w.poll(flushCh)

		case <-flushCh:
			if !w.flush(ctx, out) {
				return
			}
		}
	}
}

func (w *Watcher) isRecord(path string) bool {
	return strings.EqualFold(filepath.Ext(path), w.ext)
}

// handleFsEvent maps raw notifications: create/write become Changed,
// remove/rename become Removed, chmod-only touches are dropped.
func (w *Watcher) handleFsEvent(ev fsnotify.Event, flushCh chan<- struct{}) {
	if !w.isRecord(ev.Name) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.enqueue(ev.Name, Removed, flushCh)
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.enqueue(ev.Name, Changed, flushCh)
	}
}

// enqueue records the latest kind for path and restarts the window.
func (w *Watcher) enqueue(path string, kind EventKind, flushCh chan<- struct{}) {
	w.pendingMu.Lock()
	if _, seen := w.pending[path]; !seen {
		w.order = append(w.order, path)
	}
	w.pending[path] = kind
	w.pendingMu.Unlock()

	w.debouncer.Trigger(func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

// flush sends pending events in first-seen order. It returns false if the
// watcher was cancelled while the channel was full.
func (w *Watcher) flush(ctx context.Context, out chan<- Event) bool {
	w.pendingMu.Lock()
	order, pending := w.order, w.pending
	w.order = nil
	w.pending = make(map[string]EventKind)
	w.pendingMu.Unlock()

	if len(order) == 0 {
		return true
	}

	for _, path := range order {
		select {
		case out <- Event{Kind: pending[path], Path: path}:
		case <-ctx.Done():
			return false
		}
	}
	debug.Log("watcher: flushed %d events", len(order))
	w.notify()
	return true
}

func (w *Watcher) scanSnapshot() map[string]fileStamp {
	snap := make(map[string]fileStamp)
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return snap
	}
	for _, e := range entries {
		if e.IsDir() || !w.isRecord(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snap[filepath.Join(w.dir, e.Name())] = fileStamp{modTime: info.ModTime(), size: info.Size()}
	}
	return snap
}

// poll diffs a fresh directory snapshot against the previous one.
func (w *Watcher) poll(flushCh chan<- struct{}) {
	if _, err := os.Stat(w.dir); err != nil {
		w.onError(err)
		return
	}

	next := w.scanSnapshot()
	prev := w.snapshot
	w.snapshot = next

	changed := make([]string, 0)
	for path, stamp := range next {
		old, ok := prev[path]
		if !ok || !old.modTime.Equal(stamp.modTime) || old.size != stamp.size {
			changed = append(changed, path)
		}
	}
	removed := make([]string, 0)
	for path := range prev {
		if _, ok := next[path]; !ok {
			removed = append(removed, path)
		}
	}

	sort.Strings(changed)
	sort.Strings(removed)
	for _, p := range changed {
		w.enqueue(p, Changed, flushCh)
	}
	for _, p := range removed {
		w.enqueue(p, Removed, flushCh)
	}
}

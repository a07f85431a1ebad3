package reconcile

import (
	"github.com/vanderheijden86/taskmirror/pkg/analysis"
	"github.com/vanderheijden86/taskmirror/pkg/debug"
	"github.com/vanderheijden86/taskmirror/pkg/loader"
	"github.com/vanderheijden86/taskmirror/pkg/metrics"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
	"github.com/vanderheijden86/taskmirror/pkg/watcher"
)

// Engine turns directory contents and change events into mirror operations
// and keeps State in step with what it emitted.
type Engine struct {
	state *State
	scan  func(dir string) []model.Task
	read  func(path string) (model.Task, error)
}

// NewEngine returns an engine over state. opts control the full-scan loader.
func NewEngine(state *State, opts loader.ScanOptions) *Engine {
	return &Engine{
		state: state,
		scan: func(dir string) []model.Task {
			return loader.ScanDirWithOptions(dir, opts)
		},
		read: loader.ReadTask,
	}
}

// State returns the correlation model the engine writes to.
func (e *Engine) State() *State {
	return e.state
}

// FullScan reads the selected source and returns the operations that bring
// the mirror in line with it: creates for new records, updates for records
// whose subject or state moved, and deletes for mirrored records that are
// gone. A second scan over unchanged files returns nothing.
func (e *Engine) FullScan() []mirror.Operation {
	defer metrics.Timer(metrics.ReconcileDuration)()

	src, ok := e.state.Selected()
	if !ok {
		return nil
	}

	tasks := e.scan(src.Path)
	res := analysis.Analyze(tasks)

	s := e.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isSelected(src.ID) {
		return nil
	}

	var ops []mirror.Operation
	if len(s.leftovers) > 0 && s.guidance == GuidanceNone {
		for _, id := range s.leftovers {
			ops = append(ops, mirror.DeleteItem(id))
		}
		s.leftovers = nil
	}

	if !s.headerKnown {
		ops = append(ops, mirror.CreateHeader(src.ID, src.DisplayName))
		s.headerKnown = true
	}

	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			debug.Log("reconcile: duplicate task id %q in %s", t.ID, src.Path)
			continue
		}
		seen[t.ID] = true

		if m, ok := s.known[t.ID]; ok {
			if !m.matches(t) {
				ops = append(ops, mirror.UpdateItem(src.ID, t))
			}
			s.known[t.ID] = snapshot(t)
			continue
		}

		ops = append(ops, mirror.CreateItem(src.ID, t, res.Annotation(t.ID))...)
		s.known[t.ID] = snapshot(t)
	}

	for _, id := range sortedKeys(s.known) {
		if seen[id] {
			continue
		}
		ops = append(ops, mirror.DeleteItem(mirror.ItemID(src.ID, id)))
		delete(s.known, id)
	}

	s.tracker.RecordUpdate()
	debug.Log("reconcile: full scan of %s: %d records, %d ops", src.ID, len(tasks), len(ops))
	return ops
}

// Apply handles one drained batch of watcher events. Any event refreshes the
// staleness clock; a Changed event also clears active guidance before the
// per-file operations.
func (e *Engine) Apply(events []watcher.Event) []mirror.Operation {
	if len(events) == 0 {
		return nil
	}
	defer metrics.Timer(metrics.ReconcileDuration)()

	src, ok := e.state.Selected()
	if !ok {
		return nil
	}

	var ops []mirror.Operation

	s := e.state
	s.mu.Lock()
	if !s.isSelected(src.ID) {
		s.mu.Unlock()
		return nil
	}
	s.tracker.RecordUpdate()
	if s.guidance != GuidanceNone && hasChanged(events) {
		ops = append(ops, mirror.ClearGuidance()...)
		s.guidance = GuidanceNone
		s.leftovers = nil
	}
	s.mu.Unlock()

	for _, ev := range events {
		id, ok := model.TaskIDFromPath(ev.Path)
		if !ok {
			continue
		}
		switch ev.Kind {
		case watcher.Removed:
			ops = append(ops, e.removed(src, id)...)
		case watcher.Changed:
			ops = append(ops, e.changed(src, id, ev.Path)...)
		}
	}
	return ops
}

func (e *Engine) removed(src Source, taskID string) []mirror.Operation {
	s := e.state
	s.mu.Lock()
	defer s.mu.Unlock()

	// The source may have been switched while the batch was being handled.
	if !s.isSelected(src.ID) {
		return nil
	}

	// Deletes are addressed by id, so a record never mirrored by this
	// process is still removed downstream.
	delete(s.known, taskID)
	return []mirror.Operation{mirror.DeleteItem(mirror.ItemID(src.ID, taskID))}
}

func (e *Engine) changed(src Source, taskID, path string) []mirror.Operation {
	task, err := e.read(path)
	if err != nil {
		// Usually a write still in progress; the next event picks it up.
		metrics.RecordsSkipped.Add(1)
		debug.Log("reconcile: skipping %s: %v", path, err)
		return nil
	}
	task.ID = taskID

	s := e.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isSelected(src.ID) {
		return nil
	}

	if m, ok := s.known[taskID]; ok {
		s.known[taskID] = snapshot(task)
		if m.matches(task) {
			return nil
		}
		return []mirror.Operation{mirror.UpdateItem(src.ID, task)}
	}

	var ops []mirror.Operation
	if !s.headerKnown {
		ops = append(ops, mirror.CreateHeader(src.ID, src.DisplayName))
		s.headerKnown = true
	}

	peers := make([]model.Task, 0, len(s.known)+1)
	for _, id := range sortedKeys(s.known) {
		m := s.known[id]
		peers = append(peers, model.Task{ID: id, Subject: m.subject, BlockedBy: m.blockedBy})
	}
	peers = append(peers, task)
	res := analysis.Analyze(peers)

	ops = append(ops, mirror.CreateItem(src.ID, task, res.Annotation(taskID))...)
	s.known[taskID] = snapshot(task)
	return ops
}

func hasChanged(events []watcher.Event) bool {
	for _, ev := range events {
		if ev.Kind == watcher.Changed {
			return true
		}
	}
	return false
}

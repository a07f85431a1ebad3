package reconcile

import (
	"sort"
	"sync"

	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
	"github.com/vanderheijden86/taskmirror/pkg/staleness"
)

// GuidanceMode identifies which placeholder set is currently shown.
type GuidanceMode int

const (
	GuidanceNone GuidanceMode = iota
	GuidanceNoSources
	GuidanceEmptySource
	GuidanceError
)

func (m GuidanceMode) String() string {
	switch m {
	case GuidanceNone:
		return "none"
	case GuidanceNoSources:
		return "no-sources"
	case GuidanceEmptySource:
		return "empty-source"
	case GuidanceError:
		return "error"
	default:
		return "unknown"
	}
}

// Source is a selected task list.
type Source struct {
	ID          string
	Path        string
	DisplayName string
}

// mirrored is what the engine last wrote downstream for one task.
type mirrored struct {
	subject   string
	state     model.VisualState
	blockedBy []string
}

func snapshot(t model.Task) mirrored {
	deps := make([]string, len(t.BlockedBy))
	copy(deps, t.BlockedBy)
	return mirrored{subject: t.Subject, state: t.State(), blockedBy: deps}
}

func (m mirrored) matches(t model.Task) bool {
	return m.subject == t.Subject && m.state == t.State()
}

// State is the correlation model shared by the engine and the session. All
// fields are guarded by mu; no file or store I/O happens while it is held.
type State struct {
	mu sync.Mutex

	selected    *Source
	known       map[string]mirrored
	headerKnown bool
	guidance    GuidanceMode
	pending     []mirror.Operation
	leftovers   []string
	scanWanted  bool
	tracker     *staleness.Tracker
}

// NewState returns an empty state with no source selected.
func NewState() *State {
	return &State{
		known:   make(map[string]mirrored),
		tracker: staleness.New(staleness.DefaultThresholdMinutes),
	}
}

// reset forgets everything about the previous source and selects src.
func (s *State) reset(src Source, tracker *staleness.Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := src
	s.selected = &sel
	s.known = make(map[string]mirrored)
	s.headerKnown = false
	s.guidance = GuidanceNone
	s.pending = nil
	s.leftovers = nil
	s.scanWanted = false
	s.tracker = tracker
}

// Selected returns the current source, if any.
func (s *State) Selected() (Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return Source{}, false
	}
	return *s.selected, true
}

// Guidance returns the active guidance mode.
func (s *State) Guidance() GuidanceMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guidance
}

// HeaderKnown reports whether the selected source's header exists downstream.
func (s *State) HeaderKnown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headerKnown
}

// KnownIDs returns the mirrored task ids in sorted order.
func (s *State) KnownIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.known)
}

// IsKnown reports whether taskID has been mirrored.
func (s *State) IsKnown(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.known[taskID]
	return ok
}

// showGuidance switches to mode and queues its placeholder operations.
func (s *State) showGuidance(mode GuidanceMode, ops []mirror.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guidance = mode
	s.pending = append(s.pending, ops...)
}

// takePending returns and clears queued operations.
func (s *State) takePending() []mirror.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.pending
	s.pending = nil
	return ops
}

func (s *State) requestScan() {
	s.mu.Lock()
	s.scanWanted = true
	s.mu.Unlock()
}

func (s *State) takeScanRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := s.scanWanted
	s.scanWanted = false
	return wanted
}

// isSelected reports whether id is still the selected source. Callers hold mu.
func (s *State) isSelected(id string) bool {
	return s.selected != nil && s.selected.ID == id
}

func sortedKeys(m map[string]mirrored) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SeedItem is a previously mirrored item read back from the store.
type SeedItem struct {
	ID       string
	Content  string
	State    model.VisualState
	Metadata []byte
}

// Seed rebuilds known ids for the selected source from stored items, so a
// restart updates existing items instead of recreating them. Placeholder
// items left by an earlier run are deleted by the next full scan unless
// guidance is active by then. Seed returns the number of task items adopted.
func (s *State) Seed(items []SeedItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return 0
	}
	src := s.selected.ID

	adopted := 0
	for _, it := range items {
		if it.ID == mirror.HeaderID(src) {
			s.headerKnown = true
			continue
		}
		if mirror.IsGuidanceID(it.ID) {
			s.leftovers = append(s.leftovers, it.ID)
			continue
		}
		if len(it.Metadata) == 0 {
			continue
		}
		meta, err := mirror.ParseMetadata(it.Metadata)
		if err != nil || meta.Source != mirror.EngineName || meta.TasklistID != src || meta.TaskID == "" {
			continue
		}
		deps := make([]string, len(meta.BlockedBy))
		copy(deps, meta.BlockedBy)
		s.known[meta.TaskID] = mirrored{
			subject:   mirror.SubjectFromContent(it.Content),
			state:     it.State,
			blockedBy: deps,
		}
		adopted++
	}
	sort.Strings(s.leftovers)
	return adopted
}

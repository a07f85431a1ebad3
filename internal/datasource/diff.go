package datasource

import (
	"context"
	"fmt"
	"sort"

	"github.com/vanderheijden86/taskmirror/internal/store"
	"github.com/vanderheijden86/taskmirror/pkg/loader"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// SourceDiff represents differences between a task list and its mirror
type SourceDiff struct {
	// SourceID is the compared task list
	SourceID string `json:"source_id"`
	// HeaderMissing is set when records exist but the mirror has no header
	HeaderMissing bool `json:"header_missing"`
	// MissingInMirror contains task ids on disk with no mirrored item
	MissingInMirror []string `json:"missing_in_mirror,omitempty"`
	// Orphaned contains task ids mirrored for this list but gone from disk
	Orphaned []string `json:"orphaned,omitempty"`
	// StateMismatch contains items whose state differs from the record status
	StateMismatch []StateDifference `json:"state_mismatch,omitempty"`
	// DiskCount is the number of records on disk
	DiskCount int `json:"disk_count"`
	// MirrorCount is the number of mirrored task items
	MirrorCount int `json:"mirror_count"`
}

// StateDifference represents a state mismatch for a single task
type StateDifference struct {
	ID       string            `json:"id"`
	OnDisk   model.VisualState `json:"on_disk"`
	Mirrored model.VisualState `json:"mirrored"`
}

// HasInconsistencies returns true if the mirror disagrees with the disk
func (d SourceDiff) HasInconsistencies() bool {
	return d.HeaderMissing || len(d.MissingInMirror) > 0 || len(d.Orphaned) > 0 || len(d.StateMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Mirror matches %s (%d tasks)", d.SourceID, d.DiskCount)
	}

	summary := fmt.Sprintf("Inconsistencies found for %s:\n", d.SourceID)

	if d.DiskCount != d.MirrorCount {
		summary += fmt.Sprintf("  - Count mismatch: %d on disk vs %d mirrored\n", d.DiskCount, d.MirrorCount)
	}
	if d.HeaderMissing {
		summary += "  - Header item missing\n"
	}

	if len(d.MissingInMirror) > 0 {
		summary += fmt.Sprintf("  - %d tasks not mirrored\n", len(d.MissingInMirror))
		if len(d.MissingInMirror) <= 5 {
			for _, id := range d.MissingInMirror {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}

	if len(d.Orphaned) > 0 {
		summary += fmt.Sprintf("  - %d mirrored items without a task\n", len(d.Orphaned))
		if len(d.Orphaned) <= 5 {
			for _, id := range d.Orphaned {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}

	if len(d.StateMismatch) > 0 {
		summary += fmt.Sprintf("  - %d tasks with different state\n", len(d.StateMismatch))
		if len(d.StateMismatch) <= 5 {
			for _, m := range d.StateMismatch {
				summary += fmt.Sprintf("    - %s: %s vs %s\n", m.ID, m.OnDisk, m.Mirrored)
			}
		}
	}

	return summary
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// MaxDifferences limits the number of differences tracked per category (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{MaxDifferences: 100}
}

// DetectInconsistencies compares records on disk with the mirrored items
// correlated to sourceID. Results are sorted by task id.
func DetectInconsistencies(tasks []model.Task, items []store.Item, sourceID string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{SourceID: sourceID}

	onDisk := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		onDisk[t.ID] = t
	}

	header := false
	mirrored := make(map[string]store.Item)
	for _, it := range items {
		if it.ID == mirror.HeaderID(sourceID) {
			header = true
			continue
		}
		meta, ok := it.Correlation()
		if !ok || meta.TasklistID != sourceID || meta.TaskID == "" {
			continue
		}
		mirrored[meta.TaskID] = it
	}

	diff.DiskCount = len(onDisk)
	diff.MirrorCount = len(mirrored)
	diff.HeaderMissing = !header && len(onDisk) > 0

	keep := func(n int) bool {
		return opts.MaxDifferences == 0 || n < opts.MaxDifferences
	}

	for _, id := range sortedTaskIDs(onDisk) {
		t := onDisk[id]
		it, ok := mirrored[id]
		if !ok {
			if keep(len(diff.MissingInMirror)) {
				diff.MissingInMirror = append(diff.MissingInMirror, id)
			}
			continue
		}
		if it.State != t.State() && keep(len(diff.StateMismatch)) {
			diff.StateMismatch = append(diff.StateMismatch, StateDifference{
				ID:       id,
				OnDisk:   t.State(),
				Mirrored: it.State,
			})
		}
	}

	var orphans []string
	for id := range mirrored {
		if _, ok := onDisk[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		if !keep(len(diff.Orphaned)) {
			break
		}
		diff.Orphaned = append(diff.Orphaned, id)
	}

	return diff
}

// CompareSource loads a task list and compares it with the store.
func CompareSource(ctx context.Context, src SourceInfo, st store.Store, opts DiffOptions) (*SourceDiff, error) {
	tasks := loader.ScanDir(src.Path)

	items, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mirror items: %w", err)
	}

	diff := DetectInconsistencies(tasks, items, src.ID, opts)
	return &diff, nil
}

func sortedTaskIDs(m map[string]model.Task) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := m[ids[i]].SortKey(), m[ids[j]].SortKey()
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

package datasource

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/taskmirror/internal/store"
	"github.com/vanderheijden86/taskmirror/pkg/analysis"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

func task(id, subject string, status model.Status) model.Task {
	return model.Task{ID: id, Subject: subject, Status: status, Blocks: []string{}, BlockedBy: []string{}}
}

func mirrorOf(t *testing.T, src string, tasks ...model.Task) []store.Item {
	t.Helper()
	ops := []mirror.Operation{mirror.CreateHeader(src, src)}
	for _, tk := range tasks {
		ops = append(ops, mirror.CreateItem(src, tk, analysis.Annotation{})...)
	}
	s := store.NewMemory()
	if err := s.Apply(context.Background(), ops); err != nil {
		t.Fatal(err)
	}
	items, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return items
}

func TestDetectInconsistencies_Match(t *testing.T) {
	tasks := []model.Task{task("1", "a", model.StatusPending), task("2", "b", model.StatusCompleted)}
	diff := DetectInconsistencies(tasks, mirrorOf(t, "abc", tasks...), "abc", DefaultDiffOptions())

	if diff.HasInconsistencies() {
		t.Fatalf("expected no inconsistencies, got %+v", diff)
	}
	if diff.DiskCount != 2 || diff.MirrorCount != 2 {
		t.Errorf("counts = %d/%d", diff.DiskCount, diff.MirrorCount)
	}
	if !strings.Contains(diff.Summary(), "Mirror matches abc (2 tasks)") {
		t.Errorf("unexpected summary %q", diff.Summary())
	}
}

func TestDetectInconsistencies_AllKinds(t *testing.T) {
	mirrored := mirrorOf(t, "abc",
		task("1", "a", model.StatusPending),
		task("2", "b", model.StatusPending),
		task("9", "gone", model.StatusPending),
	)
	// Items of another list are ignored.
	mirrored = append(mirrored, mirrorOf(t, "other", task("5", "x", model.StatusPending))...)

	disk := []model.Task{
		task("1", "a", model.StatusPending),
		task("2", "b", model.StatusInProgress),
		task("10", "new", model.StatusPending),
		task("3", "new too", model.StatusPending),
	}

	diff := DetectInconsistencies(disk, mirrored, "abc", DefaultDiffOptions())
	if !diff.HasInconsistencies() {
		t.Fatal("expected inconsistencies")
	}
	if got := strings.Join(diff.MissingInMirror, ","); got != "3,10" {
		t.Errorf("MissingInMirror = %s", got)
	}
	if got := strings.Join(diff.Orphaned, ","); got != "9" {
		t.Errorf("Orphaned = %s", got)
	}
	if len(diff.StateMismatch) != 1 || diff.StateMismatch[0].ID != "2" ||
		diff.StateMismatch[0].OnDisk != model.StateInProgress || diff.StateMismatch[0].Mirrored != model.StateEmpty {
		t.Errorf("StateMismatch = %+v", diff.StateMismatch)
	}
	if diff.HeaderMissing {
		t.Error("header is present")
	}

	summary := diff.Summary()
	for _, want := range []string{"Count mismatch: 4 on disk vs 3 mirrored", "2 tasks not mirrored", "1 mirrored items without a task", "2: in-progress vs empty"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestDetectInconsistencies_HeaderMissing(t *testing.T) {
	diff := DetectInconsistencies([]model.Task{task("1", "a", model.StatusPending)}, nil, "abc", DiffOptions{})
	if !diff.HeaderMissing {
		t.Error("expected header missing")
	}
	if len(diff.MissingInMirror) != 1 {
		t.Errorf("MissingInMirror = %v", diff.MissingInMirror)
	}

	empty := DetectInconsistencies(nil, nil, "abc", DiffOptions{})
	if empty.HasInconsistencies() {
		t.Errorf("empty list with empty mirror should match: %+v", empty)
	}
}

func TestDetectInconsistencies_MaxDifferences(t *testing.T) {
	var disk []model.Task
	for _, id := range []string{"1", "2", "3", "4"} {
		disk = append(disk, task(id, id, model.StatusPending))
	}
	diff := DetectInconsistencies(disk, nil, "abc", DiffOptions{MaxDifferences: 2})
	if len(diff.MissingInMirror) != 2 {
		t.Errorf("expected capped list, got %v", diff.MissingInMirror)
	}
}

func TestCompareSource(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abc")
	writeRecord(t, dir, "1", "a", "completed")

	st := store.NewMemory()
	src := SourceInfo{ID: "abc", Path: dir}

	diff, err := CompareSource(context.Background(), src, st, DefaultDiffOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !diff.HeaderMissing || len(diff.MissingInMirror) != 1 {
		t.Errorf("unexpected diff %+v", diff)
	}
}

package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/taskmirror/pkg/model"
	"github.com/vanderheijden86/taskmirror/pkg/testutil"
)

func writeRecord(t *testing.T, dir, id, subject, status string, blockedBy ...string) {
	t.Helper()
	testutil.WriteTask(t, dir, testutil.NewTask(id, subject, model.Status(status), blockedBy...))
}

func setModTime(t *testing.T, dir string, at time.Time) {
	t.Helper()
	if err := os.Chtimes(dir, at, at); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverSources_NewestFirstSkipsEmpty(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	older := filepath.Join(root, "older")
	writeRecord(t, older, "1", "old task", "pending")
	setModTime(t, older, base)

	newer := filepath.Join(root, "newer")
	for i := 1; i <= 4; i++ {
		writeRecord(t, newer, fmt.Sprint(i), fmt.Sprintf("task %d", i), "pending")
	}
	setModTime(t, newer, base.Add(time.Hour))

	empty := filepath.Join(root, "empty")
	if err := os.Mkdir(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	setModTime(t, empty, base.Add(2*time.Hour))

	if err := os.WriteFile(filepath.Join(root, "stray.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := DiscoverSources(context.Background(), DiscoveryOptions{Root: root})
	if err != nil {
		t.Fatalf("DiscoverSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d: %v", len(sources), sources)
	}
	if sources[0].ID != "newer" || sources[1].ID != "older" {
		t.Errorf("unexpected order: %s, %s", sources[0].ID, sources[1].ID)
	}
	if sources[0].TaskCount != 4 {
		t.Errorf("expected 4 tasks, got %d", sources[0].TaskCount)
	}
	if got := sources[0].SampleTasks; len(got) != 3 || got[0] != "task 1" || got[2] != "task 3" {
		t.Errorf("unexpected samples %v", got)
	}
	if !filepath.IsAbs(sources[0].Path) {
		t.Errorf("expected absolute path, got %q", sources[0].Path)
	}
}

func TestDiscoverSources_IncludeEmpty(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	sources, err := DiscoverSources(context.Background(), DiscoveryOptions{Root: root, IncludeEmpty: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || sources[0].TaskCount != 0 {
		t.Errorf("expected one empty source, got %v", sources)
	}
}

func TestDiscoverSources_MissingRoot(t *testing.T) {
	var logged []string
	sources, err := DiscoverSources(context.Background(), DiscoveryOptions{
		Root:    filepath.Join(t.TempDir(), "missing"),
		Verbose: true,
		Logger:  func(msg string) { logged = append(logged, msg) },
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sources == nil || len(sources) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", sources)
	}
	if len(logged) == 0 {
		t.Error("expected a verbose log line")
	}
}

func TestDiscoverSources_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, filepath.Join(root, "a"), "1", "x", "pending")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DiscoverSources(ctx, DiscoveryOptions{Root: root}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestResolveSource(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	writeRecord(t, filepath.Join(root, "a"), "1", "x", "pending")
	setModTime(t, filepath.Join(root, "a"), base)
	writeRecord(t, filepath.Join(root, "b"), "1", "y", "pending")
	setModTime(t, filepath.Join(root, "b"), base.Add(time.Minute))
	if err := os.Mkdir(filepath.Join(root, "fresh"), 0o755); err != nil {
		t.Fatal(err)
	}

	src, err := ResolveSource(context.Background(), root, "")
	if err != nil || src.ID != "b" {
		t.Errorf("ResolveSource newest = %v, %v", src, err)
	}

	src, err = ResolveSource(context.Background(), root, "fresh")
	if err != nil || src.ID != "fresh" || src.TaskCount != 0 {
		t.Errorf("ResolveSource explicit empty = %v, %v", src, err)
	}

	if _, err := ResolveSource(context.Background(), root, "nope"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}

	if _, err := ResolveSource(context.Background(), t.TempDir(), ""); !errors.Is(err, ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}

func TestLoadTasksAndFindSource(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, filepath.Join(root, "a"), "10", "ten", "pending")
	writeRecord(t, filepath.Join(root, "a"), "2", "two", "completed")

	src, tasks, err := LoadTasks(context.Background(), root, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 || tasks[0].ID != "2" || tasks[1].ID != "10" {
		t.Errorf("unexpected tasks %v", tasks)
	}

	if got, ok := FindSource([]SourceInfo{src}, "a"); !ok || got.Path != src.Path {
		t.Errorf("FindSource = %v, %v", got, ok)
	}
	if _, ok := FindSource([]SourceInfo{src}, "b"); ok {
		t.Error("expected no match")
	}
}

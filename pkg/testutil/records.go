package testutil

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// TB is the subset of testing.TB that *rapid.T also provides.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Record encodes a task the way the task tool writes it: every field present,
// relation lists never null.
func Record(task model.Task) ([]byte, error) {
	if task.Blocks == nil {
		task.Blocks = []string{}
	}
	if task.BlockedBy == nil {
		task.BlockedBy = []string{}
	}
	return json.Marshal(task)
}

// WriteTask writes task to dir/<id>.json through a rename, creating dir if
// needed, and returns the record path.
func WriteTask(t TB, dir string, task model.Task) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	data, err := Record(task)
	if err != nil {
		t.Fatalf("encode task %s: %v", task.ID, err)
	}
	path := filepath.Join(dir, task.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename %s: %v", tmp, err)
	}
	return path
}

// WriteTaskList writes every task into dir.
func WriteTaskList(t TB, dir string, tasks []model.Task) {
	t.Helper()
	for _, task := range tasks {
		WriteTask(t, dir, task)
	}
}

// RemoveTask deletes the record for id, failing if it does not exist.
func RemoveTask(t TB, dir, id string) {
	t.Helper()
	if err := os.Remove(filepath.Join(dir, id+".json")); err != nil {
		t.Fatalf("remove task %s: %v", id, err)
	}
}

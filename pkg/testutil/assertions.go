package testutil

import (
	"testing"

	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// AssertTaskCount verifies the expected number of tasks.
func AssertTaskCount(t *testing.T, tasks []model.Task, expected int) {
	t.Helper()
	if len(tasks) != expected {
		t.Errorf("expected %d tasks, got %d", expected, len(tasks))
	}
}

// AssertNoDuplicateIDs verifies all task IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, tasks []model.Task) {
	t.Helper()
	seen := make(map[string]bool)
	for _, task := range tasks {
		if seen[task.ID] {
			t.Errorf("duplicate task ID: %s", task.ID)
		}
		seen[task.ID] = true
	}
}

// AssertBlockedBy verifies that fromID lists toID among its blockers.
func AssertBlockedBy(t *testing.T, tasks []model.Task, fromID, toID string) {
	t.Helper()
	task, ok := FindTask(tasks, fromID)
	if !ok {
		t.Errorf("task %s not found", fromID)
		return
	}
	for _, dep := range task.BlockedBy {
		if dep == toID {
			return
		}
	}
	t.Errorf("expected %s to be blocked by %s, got %v", fromID, toID, task.BlockedBy)
}

// FindTask returns the task with the given id.
func FindTask(tasks []model.Task, id string) (model.Task, bool) {
	for _, task := range tasks {
		if task.ID == id {
			return task, true
		}
	}
	return model.Task{}, false
}

// IDs returns the task ids in order.
func IDs(tasks []model.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

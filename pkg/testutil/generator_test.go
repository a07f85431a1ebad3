package testutil

import (
	"os"
	"testing"

	"github.com/vanderheijden86/taskmirror/pkg/model"
)

func TestChain(t *testing.T) {
	gen := NewDefault()

	tests := []struct {
		name      string
		size      int
		wantEdges int
		wantDepth int
	}{
		{"chain_1", 1, 0, 0},
		{"chain_2", 2, 1, 1},
		{"chain_5", 5, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gf := gen.Chain(tt.size)
			if len(gf.Nodes) != tt.size {
				t.Errorf("Chain(%d) nodes = %d", tt.size, len(gf.Nodes))
			}
			if len(gf.Edges) != tt.wantEdges {
				t.Errorf("Chain(%d) edges = %d, want %d", tt.size, len(gf.Edges), tt.wantEdges)
			}
			if gf.Properties.HasCycles {
				t.Error("Chain should not have cycles")
			}
			if gf.Properties.ExpectedDepth != tt.wantDepth {
				t.Errorf("Chain(%d) depth = %d, want %d", tt.size, gf.Properties.ExpectedDepth, tt.wantDepth)
			}
		})
	}
}

func TestToTasks_Relations(t *testing.T) {
	gen := NewDefault()
	tasks := gen.ToTasks(gen.Diamond(2))

	AssertTaskCount(t, tasks, 4)
	AssertNoDuplicateIDs(t, tasks)
	AssertBlockedBy(t, tasks, "2", "1")
	AssertBlockedBy(t, tasks, "3", "1")
	AssertBlockedBy(t, tasks, "4", "2")
	AssertBlockedBy(t, tasks, "4", "3")

	top, _ := FindTask(tasks, "1")
	if len(top.Blocks) != 2 {
		t.Errorf("top should block both middle nodes, got %v", top.Blocks)
	}
	for _, task := range tasks {
		if !task.Status.IsValid() {
			t.Errorf("task %s has invalid status %q", task.ID, task.Status)
		}
	}
}

func TestRandomDAG_Deterministic(t *testing.T) {
	a := New(DefaultConfig()).RandomDAG(20, 0.3)
	b := New(DefaultConfig()).RandomDAG(20, 0.3)
	if len(a.Edges) != len(b.Edges) {
		t.Fatalf("same seed gave %d and %d edges", len(a.Edges), len(b.Edges))
	}
	for _, e := range a.Edges {
		if e[0] <= e[1] {
			t.Errorf("edge %v points forward", e)
		}
	}
}

func TestWriteTask_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := WriteTask(t, dir, NewTask("7", "Ship it", model.StatusInProgress, "3"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := model.ParseTask(data)
	if err != nil {
		t.Fatalf("ParseTask: %v", err)
	}
	if got.ID != "7" || got.Subject != "Ship it" || got.Status != model.StatusInProgress {
		t.Errorf("unexpected task %+v", got)
	}
	if len(got.BlockedBy) != 1 || got.BlockedBy[0] != "3" {
		t.Errorf("BlockedBy = %v", got.BlockedBy)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

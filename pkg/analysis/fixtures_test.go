package analysis

import (
	"testing"

	"github.com/vanderheijden86/taskmirror/pkg/testutil"
)

func TestTopologies(t *testing.T) {
	gen := testutil.NewDefault()

	tests := []struct {
		name string
		gf   testutil.GraphFixture
	}{
		{"chain", gen.Chain(6)},
		{"star", gen.Star(5)},
		{"diamond", gen.Diamond(3)},
		{"cycle", gen.Cycle(4)},
		{"self_loop", gen.SelfLoop()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := gen.ToTasks(tt.gf)
			res := Analyze(tasks)
			groups := CycleGroups(tasks)

			if got := len(groups) > 0; got != tt.gf.Properties.HasCycles {
				t.Fatalf("cycle groups %v, want cycles=%v", groups, tt.gf.Properties.HasCycles)
			}

			if tt.gf.Properties.HasCycles {
				for _, task := range tasks {
					if !res.IsCyclic(task.ID) {
						t.Errorf("task %s should be cyclic", task.ID)
					}
				}
				if d := Depths(tasks); len(d) != 0 {
					t.Errorf("cyclic tasks should have no depth, got %v", d)
				}
				return
			}

			depths := Depths(tasks)
			deepest := 0
			for _, d := range depths {
				deepest = max(deepest, d)
			}
			if len(depths) != len(tasks) {
				t.Errorf("expected a depth for all %d tasks, got %v", len(tasks), depths)
			}
			if deepest != tt.gf.Properties.ExpectedDepth {
				t.Errorf("deepest = %d, want %d", deepest, tt.gf.Properties.ExpectedDepth)
			}
		})
	}
}

func TestRandomDAG_NeverCyclic(t *testing.T) {
	gen := testutil.NewDefault()
	for i := 0; i < 10; i++ {
		tasks := gen.ToTasks(gen.RandomDAG(30, 0.2))
		if ids := Analyze(tasks).CyclicIDs(tasks); len(ids) != 0 {
			t.Fatalf("random DAG reported cyclic tasks %v", ids)
		}
		if groups := CycleGroups(tasks); len(groups) != 0 {
			t.Fatalf("random DAG reported cycle groups %v", groups)
		}
	}
}

func BenchmarkAnalyze_RandomDAG(b *testing.B) {
	gen := testutil.NewDefault()
	tasks := gen.ToTasks(gen.RandomDAG(500, 0.02))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Analyze(tasks)
	}
}

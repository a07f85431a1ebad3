// Package testutil builds task-list fixtures for tests: dependency graph
// topologies turned into task records, and helpers that write them to disk.
package testutil

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// GraphFixture is a dependency topology over node indexes. An edge [from, to]
// means node from is blocked by node to.
type GraphFixture struct {
	Description string
	Nodes       []string
	Edges       [][2]int
	Properties  Properties
}

// Properties records what a topology is expected to look like after analysis.
type Properties struct {
	HasCycles     bool
	ExpectedDepth int
}

// GeneratorConfig controls task generation.
type GeneratorConfig struct {
	Seed      int64
	StatusMix []model.Status
}

// DefaultConfig returns a deterministic config with every status represented.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		StatusMix: []model.Status{model.StatusPending, model.StatusInProgress, model.StatusCompleted},
	}
}

// Generator produces fixtures from a seeded source so runs are reproducible.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

func New(cfg GeneratorConfig) *Generator {
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = DefaultConfig().StatusMix
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Chain creates n1 <- n2 <- ... where each node is blocked by the previous one.
func (g *Generator) Chain(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, 0, max(size-1, 0))
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			edges = append(edges, [2]int{i, i - 1})
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Linear chain of %d nodes", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{ExpectedDepth: max(size-1, 0)},
	}
}

// Star creates a hub that blocks every spoke.
func (g *Generator) Star(spokes int) GraphFixture {
	nodes := make([]string, spokes+1)
	edges := make([][2]int, spokes)
	nodes[0] = "hub"
	for i := 1; i <= spokes; i++ {
		nodes[i] = fmt.Sprintf("spoke%d", i)
		edges[i-1] = [2]int{i, 0}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Star with hub and %d spokes", spokes),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{ExpectedDepth: 1},
	}
}

// Diamond creates top <- mid1..midN <- bottom.
func (g *Generator) Diamond(width int) GraphFixture {
	if width < 1 {
		width = 1
	}
	size := width + 2
	nodes := make([]string, size)
	edges := make([][2]int, 0, width*2)
	nodes[0] = "top"
	nodes[size-1] = "bottom"
	for i := 1; i <= width; i++ {
		nodes[i] = fmt.Sprintf("mid%d", i)
		edges = append(edges, [2]int{i, 0}, [2]int{size - 1, i})
	}
	return GraphFixture{
		Description: fmt.Sprintf("Diamond with %d middle nodes", width),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{ExpectedDepth: 2},
	}
}

// Cycle creates n0 -> n1 -> ... -> n0.
func (g *Generator) Cycle(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, size)
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		edges[i] = [2]int{i, (i + 1) % size}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Cycle of %d nodes", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{HasCycles: true},
	}
}

// SelfLoop creates a single node that blocks itself.
func (g *Generator) SelfLoop() GraphFixture {
	return GraphFixture{
		Description: "Single node with self-loop",
		Nodes:       []string{"n0"},
		Edges:       [][2]int{{0, 0}},
		Properties:  Properties{HasCycles: true},
	}
}

// RandomDAG only adds edges from higher to lower indexes, so it never cycles.
// density is the probability of each edge (0.0 to 1.0).
func (g *Generator) RandomDAG(size int, density float64) GraphFixture {
	density = min(max(density, 0), 1)
	nodes := make([]string, size)
	var edges [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		for j := 0; j < i; j++ {
			if g.rng.Float64() < density {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Random DAG with %d nodes, density=%.2f (%d edges)", size, density, len(edges)),
		Nodes:       nodes,
		Edges:       edges,
	}
}

// ToTasks converts a fixture to task records. Node i gets id i+1 and the
// node name as subject.
func (g *Generator) ToTasks(gf GraphFixture) []model.Task {
	tasks := make([]model.Task, len(gf.Nodes))
	for i, name := range gf.Nodes {
		tasks[i] = NewTask(strconv.Itoa(i+1), name, g.pickStatus())
	}
	for _, e := range gf.Edges {
		from, to := strconv.Itoa(e[0]+1), strconv.Itoa(e[1]+1)
		tasks[e[0]].BlockedBy = append(tasks[e[0]].BlockedBy, to)
		tasks[e[1]].Blocks = append(tasks[e[1]].Blocks, from)
	}
	return tasks
}

func (g *Generator) pickStatus() model.Status {
	return g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))]
}

// NewTask returns a task with empty description and relation lists.
func NewTask(id, subject string, status model.Status, blockedBy ...string) model.Task {
	if blockedBy == nil {
		blockedBy = []string{}
	}
	return model.Task{
		ID:         id,
		Subject:    subject,
		ActiveForm: subject,
		Status:     status,
		Blocks:     []string{},
		BlockedBy:  blockedBy,
	}
}

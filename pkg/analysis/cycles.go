package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// blockerGraph is the gonum view of a task set. Edges point from a blocker to
// the task it blocks; unresolved blockers and self references are omitted.
type blockerGraph struct {
	g        *simple.DirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
	order    map[string]int
	selfLoop map[string]bool
}

func newBlockerGraph(tasks []model.Task) *blockerGraph {
	bg := &blockerGraph{
		g:        simple.NewDirectedGraph(),
		idToNode: make(map[string]int64, len(tasks)),
		nodeToID: make(map[int64]string, len(tasks)),
		order:    make(map[string]int, len(tasks)),
		selfLoop: make(map[string]bool),
	}

	for i, t := range tasks {
		if _, dup := bg.idToNode[t.ID]; dup {
			continue
		}
		n := bg.g.NewNode()
		bg.g.AddNode(n)
		bg.idToNode[t.ID] = n.ID()
		bg.nodeToID[n.ID()] = t.ID
		bg.order[t.ID] = i
	}

	for _, t := range tasks {
		v := bg.idToNode[t.ID]
		for _, dep := range t.BlockedBy {
			if dep == t.ID {
				bg.selfLoop[t.ID] = true
				continue
			}
			u, ok := bg.idToNode[dep]
			if !ok {
				continue
			}
			bg.g.SetEdge(bg.g.NewEdge(bg.g.Node(u), bg.g.Node(v)))
		}
	}
	return bg
}

func (bg *blockerGraph) sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return bg.order[ids[i]] < bg.order[ids[j]] })
}

// CycleGroups returns the strongly connected components that form dependency
// cycles, each listed in input order. Self-blocking tasks form their own group.
func CycleGroups(tasks []model.Task) [][]string {
	bg := newBlockerGraph(tasks)

	var groups [][]string
	for _, scc := range topo.TarjanSCC(bg.g) {
		if len(scc) == 1 {
			id := bg.nodeToID[scc[0].ID()]
			if bg.selfLoop[id] {
				groups = append(groups, []string{id})
			}
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, bg.nodeToID[n.ID()])
		}
		bg.sortIDs(ids)
		groups = append(groups, ids)
	}

	sort.Slice(groups, func(i, j int) bool {
		return bg.order[groups[i][0]] < bg.order[groups[j][0]]
	})
	return groups
}

// Depths returns how many blockers deep each task sits: tasks with no
// resolvable blockers are at depth 0. Tasks in a cycle, and tasks blocked
// through one, are left out.
func Depths(tasks []model.Task) map[string]int {
	bg := newBlockerGraph(tasks)

	excluded := make(map[int64]bool)
	for _, group := range CycleGroups(tasks) {
		for _, id := range group {
			excluded[bg.idToNode[id]] = true
		}
	}

	acyclic := simple.NewDirectedGraph()
	nodes := bg.g.Nodes()
	for nodes.Next() {
		if n := nodes.Node(); !excluded[n.ID()] {
			acyclic.AddNode(n)
		}
	}
	edges := bg.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		if excluded[e.From().ID()] || excluded[e.To().ID()] {
			continue
		}
		acyclic.SetEdge(e)
	}

	sorted, err := topo.Sort(acyclic)
	if err != nil {
		return map[string]int{}
	}

	depth := make(map[int64]int, len(sorted))
	tainted := make(map[int64]bool)
	for _, n := range sorted {
		d := 0
		for _, from := range graph.NodesOf(bg.g.To(n.ID())) {
			if excluded[from.ID()] || tainted[from.ID()] {
				tainted[n.ID()] = true
				continue
			}
			if depth[from.ID()]+1 > d {
				d = depth[from.ID()] + 1
			}
		}
		depth[n.ID()] = d
	}

	out := make(map[string]int, len(depth))
	for nid, d := range depth {
		if !tainted[nid] {
			out[bg.nodeToID[nid]] = d
		}
	}
	return out
}

// Package analysis classifies tasks by their blocked-by relationships.
//
// Analyze runs a three-colour depth-first traversal over the blocker graph,
// marks every task that takes part in a cycle and annotates the rest with the
// subjects of the tasks that block them. The pass is pure and deterministic
// for a given input order.
package analysis

import (
	"strings"

	"github.com/vanderheijden86/taskmirror/pkg/metrics"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// CyclicMarker is the annotation text for tasks in a dependency cycle.
const CyclicMarker = "⚠ Circular dependency"

// AnnotationKind classifies a task's dependency annotation.
type AnnotationKind int

const (
	AnnotationNone AnnotationKind = iota
	AnnotationBlockedBy
	AnnotationCyclic
)

func (k AnnotationKind) String() string {
	switch k {
	case AnnotationBlockedBy:
		return "blocked"
	case AnnotationCyclic:
		return "cyclic"
	default:
		return "none"
	}
}

// Annotation is the derived dependency information for one task.
type Annotation struct {
	Kind AnnotationKind
	// Blockers holds blocker subjects in blocker-list order (BlockedBy only).
	Blockers []string
}

// String renders the annotation as it appears in mirrored content.
func (a Annotation) String() string {
	switch a.Kind {
	case AnnotationCyclic:
		return CyclicMarker
	case AnnotationBlockedBy:
		return "(blocked by: " + strings.Join(a.Blockers, ", ") + ")"
	default:
		return ""
	}
}

// Result is the output of Analyze.
type Result struct {
	Annotations map[string]Annotation
	Cyclic      map[string]bool
}

// Annotation returns the annotation for id, or a None annotation.
func (r Result) Annotation(id string) Annotation {
	if a, ok := r.Annotations[id]; ok {
		return a
	}
	return Annotation{Kind: AnnotationNone}
}

// IsCyclic reports whether id participates in a dependency cycle.
func (r Result) IsCyclic(id string) bool {
	return r.Cyclic[id]
}

// CyclicIDs returns cyclic task ids in input order.
func (r Result) CyclicIDs(tasks []model.Task) []string {
	var ids []string
	for _, t := range tasks {
		if r.Cyclic[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Analyze builds the blocked-by graph for one source and annotates every task.
// Cyclic takes precedence over BlockedBy; blocker ids that resolve to no task
// are dropped, and a task whose blockers are all unresolved gets no annotation.
func Analyze(tasks []model.Task) Result {
	defer metrics.Timer(metrics.GraphDuration)()

	byID := make(map[string]*model.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	res := Result{
		Annotations: make(map[string]Annotation),
		Cyclic:      detectCycles(tasks, byID),
	}

	for _, t := range tasks {
		if res.Cyclic[t.ID] {
			res.Annotations[t.ID] = Annotation{Kind: AnnotationCyclic}
			continue
		}
		if len(t.BlockedBy) == 0 {
			continue
		}

		var names []string
		for _, id := range t.BlockedBy {
			if blocker, ok := byID[id]; ok {
				names = append(names, blocker.Subject)
			}
		}
		if len(names) > 0 {
			res.Annotations[t.ID] = Annotation{Kind: AnnotationBlockedBy, Blockers: names}
		}
	}

	return res
}

type color uint8

const (
	white color = iota // unvisited
	grey               // on the component stack
	black              // assigned to a finished component
)

// detectCycles marks every task whose strongly connected component in the
// blocker graph has more than one member, plus tasks that block themselves.
// The traversal keeps finished nodes grey until their component closes, so a
// cycle member first reached through an already visited branch is still
// marked. The result matches CycleGroups.
func detectCycles(tasks []model.Task, byID map[string]*model.Task) map[string]bool {
	cyclic := make(map[string]bool)
	colors := make(map[string]color, len(tasks))
	index := make(map[string]int, len(tasks))
	low := make(map[string]int, len(tasks))
	var stack []string
	next := 0

	var visit func(id string)
	visit = func(id string) {
		colors[id] = grey
		index[id], low[id] = next, next
		next++
		stack = append(stack, id)

		for _, dep := range byID[id].BlockedBy {
			if dep == id {
				cyclic[id] = true
				continue
			}
			if _, ok := byID[dep]; !ok {
				continue
			}
			switch colors[dep] {
			case white:
				visit(dep)
				low[id] = min(low[id], low[dep])
			case grey:
				low[id] = min(low[id], index[dep])
			}
		}

		if low[id] != index[id] {
			return
		}
		start := len(stack) - 1
		for stack[start] != id {
			start--
		}
		component := stack[start:]
		stack = stack[:start]
		for _, member := range component {
			colors[member] = black
			if len(component) > 1 {
				cyclic[member] = true
			}
		}
	}

	for _, t := range tasks {
		if colors[t.ID] == white {
			visit(t.ID)
		}
	}
	return cyclic
}

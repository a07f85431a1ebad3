package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/internal/datasource"
	"github.com/vanderheijden86/taskmirror/pkg/analysis"
	"github.com/vanderheijden86/taskmirror/pkg/ui"
)

type graphTask struct {
	ID         string   `json:"id"`
	Subject    string   `json:"subject"`
	State      string   `json:"state"`
	BlockedBy  []string `json:"blocked_by"`
	Annotation string   `json:"annotation,omitempty"`
	Cyclic     bool     `json:"cyclic,omitempty"`
	// Depth is -1 for tasks in or behind a cycle.
	Depth int `json:"depth"`
}

type graphReport struct {
	Source string      `json:"source"`
	Tasks  []graphTask `json:"tasks"`
	Cycles [][]string  `json:"cycles"`
}

func newGraphCmd(a *app) *cobra.Command {
	var sourceID string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show blocked-by relationships and dependency cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGraph(cmd.Context(), cmd.OutOrStdout(), sourceID)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "Task list id (directory name under the tasks root)")
	return cmd
}

func (a *app) buildGraphReport(ctx context.Context, sourceID string) (graphReport, error) {
	src, err := a.resolveSource(ctx, sourceID)
	if err != nil {
		return graphReport{}, err
	}
	_, tasks, err := datasource.LoadTasks(ctx, a.cfg.TasksRoot, src.ID)
	if err != nil {
		return graphReport{}, err
	}

	res := analysis.Analyze(tasks)
	depths := analysis.Depths(tasks)

	report := graphReport{
		Source: src.ID,
		Tasks:  make([]graphTask, 0, len(tasks)),
		Cycles: analysis.CycleGroups(tasks),
	}
	if report.Cycles == nil {
		report.Cycles = [][]string{}
	}
	for _, t := range tasks {
		depth, ok := depths[t.ID]
		if !ok {
			depth = -1
		}
		report.Tasks = append(report.Tasks, graphTask{
			ID:         t.ID,
			Subject:    t.Subject,
			State:      string(t.State()),
			BlockedBy:  t.BlockedBy,
			Annotation: res.Annotation(t.ID).String(),
			Cyclic:     res.IsCyclic(t.ID),
			Depth:      depth,
		})
	}
	return report, nil
}

func (a *app) runGraph(ctx context.Context, out io.Writer, sourceID string) error {
	report, err := a.buildGraphReport(ctx, sourceID)
	if err != nil {
		return err
	}
	if a.jsonOutput {
		return outputJSON(out, report)
	}

	fmt.Fprintln(out, ui.TitleStyle.Render(a.cfg.DisplayName(report.Source)))
	for _, t := range report.Tasks {
		indent := ""
		if t.Depth > 0 {
			indent = strings.Repeat("  ", t.Depth)
		}
		line := fmt.Sprintf("%s#%s %s", indent, t.ID, t.Subject)
		switch {
		case t.Cyclic:
			line += "  " + ui.ErrorStyle.Render(t.Annotation)
		case t.Annotation != "":
			line += "  " + ui.WarningStyle.Render(t.Annotation)
		}
		fmt.Fprintln(out, line)
	}

	if len(report.Cycles) == 0 {
		fmt.Fprintln(out, ui.MutedStyle.Render("No dependency cycles."))
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.ErrorStyle.Render(fmt.Sprintf("%d dependency cycle(s):", len(report.Cycles))))
	for _, group := range report.Cycles {
		fmt.Fprintf(out, "  %s\n", strings.Join(prefixAll(group, "#"), " ↔ "))
	}
	return nil
}

func prefixAll(ids []string, prefix string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = prefix + id
	}
	return out
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/internal/datasource"
	"github.com/vanderheijden86/taskmirror/internal/store"
	"github.com/vanderheijden86/taskmirror/pkg/analysis"
	"github.com/vanderheijden86/taskmirror/pkg/ui"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		sourceID string
		detailID string
		showIDs  bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the mirrored todo list",
		Long: `Prints the items held by the mirror store. With --source only that task
list's header and items are shown. --detail renders one task's full record
from disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if detailID != "" {
				return a.runShowDetail(cmd.Context(), out, sourceID, detailID)
			}
			return a.runShow(cmd.Context(), out, sourceID, showIDs)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "Only show this task list")
	cmd.Flags().StringVar(&detailID, "detail", "", "Render the task with this id")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show item ids")
	return cmd
}

func (a *app) runShow(ctx context.Context, out io.Writer, sourceID string, showIDs bool) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	items, err := st.List(ctx)
	if err != nil {
		return err
	}
	if sourceID != "" {
		items = store.SourceItems(items, sourceID)
	}

	if a.jsonOutput {
		if items == nil {
			items = []store.Item{}
		}
		return outputJSON(out, items)
	}

	fmt.Fprintln(out, ui.RenderItems(items, ui.TableOptions{Width: ui.TerminalWidth(ui.DefaultWidth), ShowIDs: showIDs}))
	fmt.Fprintln(out, ui.MutedStyle.Render(ui.Summary(items)))
	return nil
}

func (a *app) runShowDetail(ctx context.Context, out io.Writer, sourceID, taskID string) error {
	src, err := a.resolveSource(ctx, sourceID)
	if err != nil {
		return err
	}
	_, tasks, err := datasource.LoadTasks(ctx, a.cfg.TasksRoot, src.ID)
	if err != nil {
		return err
	}

	for _, t := range tasks {
		if t.ID != taskID {
			continue
		}
		ann := analysis.Analyze(tasks).Annotation(t.ID)
		if a.jsonOutput {
			return outputJSON(out, struct {
				Task       any    `json:"task"`
				Annotation string `json:"annotation,omitempty"`
			}{Task: t, Annotation: ann.String()})
		}
		rendered, err := ui.RenderTaskDetail(t, ann, ui.TerminalWidth(ui.DefaultWidth))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	}
	return fmt.Errorf("task %s not found in %s", taskID, a.cfg.DisplayName(src.ID))
}

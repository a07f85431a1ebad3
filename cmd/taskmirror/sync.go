package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/internal/datasource"
	"github.com/vanderheijden86/taskmirror/internal/store"
	"github.com/vanderheijden86/taskmirror/pkg/metrics"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/reconcile"
)

type syncResult struct {
	Source     string `json:"source,omitempty"`
	Operations int    `json:"operations"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Deleted    int    `json:"deleted"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

func summarize(ops []mirror.Operation) syncResult {
	r := syncResult{Operations: len(ops)}
	for _, op := range ops {
		switch op.Kind {
		case mirror.KindCreateHeader, mirror.KindCreateItem:
			r.Created++
		case mirror.KindUpdateItem:
			r.Updated++
		case mirror.KindDeleteItem:
			r.Deleted++
		}
	}
	return r
}

func newSyncCmd(a *app) *cobra.Command {
	var (
		sourceID string
		dryRun   bool
		stats    bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror a task list into the store once",
		Long: `Reads the selected task list, compares it with what the store already
mirrors and applies only the differences. Without --source the newest list
is used (or picked interactively on a terminal).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stats {
				metrics.SetEnabled(true)
			}
			err := a.runSync(cmd.Context(), cmd.OutOrStdout(), sourceID, dryRun)
			if stats {
				metrics.WriteReport(cmd.ErrOrStderr())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "Task list id (directory name under the tasks root)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the operations instead of applying them")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print timing metrics to stderr")
	return cmd
}

func (a *app) runSync(ctx context.Context, out io.Writer, sourceID string, dryRun bool) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	items, err := st.List(ctx)
	if err != nil {
		return err
	}

	var (
		ops  []mirror.Operation
		name string
	)
	src, err := a.resolveSource(ctx, sourceID)
	switch {
	case errors.Is(err, datasource.ErrNoSources):
		ops = mirror.NoSourcesGuidance()
	case err != nil:
		return err
	default:
		rs := a.reconcileSource(src)
		name = rs.DisplayName
		ops, err = reconcile.SyncOnce(rs, store.SeedItems(items), a.scanOptions())
		if err != nil {
			return err
		}
	}

	res := summarize(ops)
	res.Source = src.ID
	res.DryRun = dryRun

	if dryRun {
		// Validate the batch against an empty store without touching the real one.
		if err := store.NewMemory().Apply(ctx, ops); err != nil {
			return fmt.Errorf("dry run: %w", err)
		}
	} else if len(ops) > 0 {
		if err := st.Apply(ctx, ops); err != nil {
			return err
		}
	}

	if a.jsonOutput {
		return outputJSON(out, res)
	}
	if dryRun {
		for _, op := range ops {
			fmt.Fprintln(out, op.String())
		}
	}
	if name == "" {
		name = "no task lists"
	}
	verb := "Synced"
	if dryRun {
		verb = "Would sync"
	}
	fmt.Fprintf(out, "%s %s: %d operations (%d created, %d updated, %d deleted)\n",
		verb, name, res.Operations, res.Created, res.Updated, res.Deleted)
	return nil
}

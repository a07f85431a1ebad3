package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/internal/datasource"
)

// errOutOfSync makes verify exit non-zero.
var errOutOfSync = errors.New("mirror is out of sync")

func newVerifyCmd(a *app) *cobra.Command {
	var sourceID string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare a task list on disk with the mirror store",
		Long: `Reports tasks missing from the mirror, mirrored items whose task is gone,
and items whose checkbox state differs from the task status. Exits non-zero
when anything differs; run "taskmirror sync" to repair.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := a.resolveSource(ctx, sourceID)
			if err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			diff, err := datasource.CompareSource(ctx, src, st, datasource.DefaultDiffOptions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				if err := outputJSON(out, diff); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, diff.Summary())
			}
			if diff.HasInconsistencies() {
				return errOutOfSync
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "Task list id (directory name under the tasks root)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/internal/datasource"
	"github.com/vanderheijden86/taskmirror/pkg/debug"
	"github.com/vanderheijden86/taskmirror/pkg/ui"
)

type sourceJSON struct {
	datasource.SourceInfo
	DisplayName string `json:"display_name"`
}

func newSourcesCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List task lists under the tasks root, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := datasource.DiscoverSources(cmd.Context(), datasource.DiscoveryOptions{
				Root:         a.cfg.TasksRoot,
				IncludeEmpty: all,
				Verbose:      a.verbose,
				Logger:       func(msg string) { debug.Log("%s", msg) },
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				rows := make([]sourceJSON, 0, len(sources))
				for _, s := range sources {
					rows = append(rows, sourceJSON{SourceInfo: s, DisplayName: a.cfg.DisplayName(s.ID)})
				}
				return outputJSON(out, rows)
			}

			if len(sources) == 0 {
				fmt.Fprintf(out, "No task lists found in %s\n", a.cfg.TasksRoot)
				return nil
			}
			now := a.now()
			for _, s := range sources {
				fmt.Fprintln(out, a.cfg.FormatOption(s.ID, s.TaskCount, s.ModTime, now))
				for _, subject := range s.SampleTasks {
					fmt.Fprintln(out, ui.MutedStyle.Render("    "+subject))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include task lists without any records")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/pkg/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"version": version.Version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "taskmirror version %s\n", version.Version)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/pkg/config"
)

func newAliasCmd(a *app) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "alias [SOURCE_ID [NAME]]",
		Short: "List, set or remove display names for task lists",
		Long: `Without arguments, lists configured aliases. With a source id and a name,
stores the alias in the global config file; the mirror header and pickers then
show "NAME (first8...)" instead of the raw id.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch {
			case len(args) == 0:
				return a.listAliases(out)
			case remove:
				return a.saveAlias(out, args[0], "")
			case len(args) == 1:
				name, ok := a.cfg.Alias(args[0])
				if !ok {
					return fmt.Errorf("no alias for %s", args[0])
				}
				fmt.Fprintln(out, name)
				return nil
			default:
				return a.saveAlias(out, args[0], args[1])
			}
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the alias for SOURCE_ID")
	return cmd
}

func (a *app) listAliases(out io.Writer) error {
	if a.jsonOutput {
		return outputJSON(out, a.cfg.Aliases)
	}
	if len(a.cfg.Aliases) == 0 {
		fmt.Fprintln(out, "No aliases configured.")
		return nil
	}
	ids := make([]string, 0, len(a.cfg.Aliases))
	for id := range a.cfg.Aliases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(out, "%s\t%s\n", id, a.cfg.Aliases[id])
	}
	return nil
}

// saveAlias edits the global config file only, so local overrides, env vars
// and flags never leak into it. An empty name removes the alias.
func (a *app) saveAlias(out io.Writer, id, name string) error {
	path := a.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	if name == "" {
		delete(cfg.Aliases, id)
	} else {
		cfg.Aliases[id] = name
	}

	if a.configPath == "" {
		err = config.Save(cfg)
	} else {
		err = config.SaveTo(cfg, path)
	}
	if err != nil {
		return err
	}

	if name == "" {
		fmt.Fprintf(out, "Removed alias for %s\n", id)
	} else {
		fmt.Fprintf(out, "%s is now shown as %s\n", id, cfg.DisplayName(id))
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/pkg/config"
	"github.com/vanderheijden86/taskmirror/pkg/debug"
)

// app carries the resolved configuration and global flags to every command.
type app struct {
	configPath string
	storePath  string
	tasksRoot  string
	verbose    bool
	jsonOutput bool

	cfg config.Config
	now func() time.Time
	// interactive reports whether pickers may prompt.
	interactive func() bool
	errOut      io.Writer
}

func newApp() *app {
	return &app{
		now:         time.Now,
		interactive: isInteractive,
		errOut:      os.Stderr,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskmirror",
		Short: "taskmirror - mirror Claude task lists into a todo list",
		Long: `Watches a Claude Code task list under ~/.claude/tasks and keeps a read-only
mirror of it in a todo store: one header per list, one item per task, with
blocked-by annotations and a staleness marker on the header.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.loadConfig()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/taskmirror/config.yaml)")
	root.PersistentFlags().StringVar(&a.storePath, "store", "", "Mirror store database (default: $XDG_DATA_HOME/taskmirror/mirror.db)")
	root.PersistentFlags().StringVar(&a.tasksRoot, "tasks-root", "", "Directory holding task lists (default: ~/.claude/tasks)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose/debug output")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")

	root.AddGroup(&cobra.Group{ID: "sync", Title: "Sync & Data:"})
	root.AddGroup(&cobra.Group{ID: "views", Title: "Views & Reports:"})
	root.AddGroup(&cobra.Group{ID: "config", Title: "Configuration:"})

	for _, cmd := range []*cobra.Command{newSyncCmd(a), newWatchCmd(a), newVerifyCmd(a)} {
		cmd.GroupID = "sync"
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{newSourcesCmd(a), newShowCmd(a), newGraphCmd(a)} {
		cmd.GroupID = "views"
		root.AddCommand(cmd)
	}
	aliasCmd := newAliasCmd(a)
	aliasCmd.GroupID = "config"
	root.AddCommand(aliasCmd, newVersionCmd(a))
	return root
}

// loadConfig resolves configuration: file, local override, env, then flags.
// A broken config file is reported and defaults are used.
func (a *app) loadConfig() {
	if a.verbose {
		debug.SetEnabled(true)
	}

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFrom(a.configPath)
		if wd, werr := os.Getwd(); werr == nil {
			a.cfg.MergeLocal(wd)
		}
		a.cfg.ApplyEnv()
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(a.errOut, "Warning: %v (using defaults)\n", err)
	}

	if a.tasksRoot != "" {
		a.cfg.TasksRoot = a.tasksRoot
	}
	if a.storePath != "" {
		a.cfg.StorePath = a.storePath
	}
	debug.Log("config: tasks root %s, store %s", a.cfg.TasksRoot, a.cfg.StorePath)
}

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}

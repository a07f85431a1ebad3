package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/taskmirror/internal/datasource"
	"github.com/vanderheijden86/taskmirror/internal/store"
	"github.com/vanderheijden86/taskmirror/pkg/debug"
	"github.com/vanderheijden86/taskmirror/pkg/loader"
	"github.com/vanderheijden86/taskmirror/pkg/reconcile"
	"github.com/vanderheijden86/taskmirror/pkg/ui"
)

func isInteractive() bool {
	return ui.IsTerminal()
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (a *app) openStore() (*store.SQLite, error) {
	st, err := store.OpenSQLite(a.cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open mirror store: %w", err)
	}
	return st, nil
}

func (a *app) scanOptions() loader.ScanOptions {
	return loader.ScanOptions{
		WarningHandler: func(msg string) {
			debug.Log("loader: %s", msg)
		},
	}
}

// resolveSource picks the task list for a command. Without an explicit id an
// interactive terminal gets a picker when more than one list exists; otherwise
// the newest list wins.
func (a *app) resolveSource(ctx context.Context, id string) (datasource.SourceInfo, error) {
	if id == "" && !a.jsonOutput && a.interactive() {
		sources, err := datasource.DiscoverSources(ctx, datasource.DiscoveryOptions{
			Root:    a.cfg.TasksRoot,
			Verbose: a.verbose,
			Logger:  func(msg string) { debug.Log("%s", msg) },
		})
		if err != nil {
			return datasource.SourceInfo{}, err
		}
		if len(sources) > 1 {
			picked, err := ui.PickSource(ui.SourceOptions(sources, a.cfg.FormatOption, a.now()))
			if err != nil {
				return datasource.SourceInfo{}, err
			}
			id = picked
		}
	}
	return datasource.ResolveSource(ctx, a.cfg.TasksRoot, id)
}

// reconcileSource converts a discovered list into the engine's source, with
// the configured alias as display name.
func (a *app) reconcileSource(src datasource.SourceInfo) reconcile.Source {
	return reconcile.Source{
		ID:          src.ID,
		Path:        src.Path,
		DisplayName: a.cfg.DisplayName(src.ID),
	}
}

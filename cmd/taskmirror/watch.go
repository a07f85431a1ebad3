package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskmirror/internal/datasource"
	"github.com/vanderheijden86/taskmirror/internal/store"
	"github.com/vanderheijden86/taskmirror/pkg/debug"
	"github.com/vanderheijden86/taskmirror/pkg/reconcile"
	"github.com/vanderheijden86/taskmirror/pkg/ui"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		sourceID string
		tui      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the mirror in step with a task list until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx, cmd.OutOrStdout(), sourceID, tui)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "Task list id (directory name under the tasks root)")
	cmd.Flags().BoolVar(&tui, "tui", false, "Show a live view of the mirror")
	return cmd
}

// watchLoop drives a Session from a ticker: poll, apply, and re-establish the
// watch with backoff when it fails or goes away.
type watchLoop struct {
	a     *app
	st    store.Store
	sess  *reconcile.Session
	wake  chan struct{}
	retry *backoff.ExponentialBackOff

	src       *datasource.SourceInfo
	failed    bool
	nextRetry time.Time
}

func newRetryBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0
	return bo
}

func (a *app) newWatchLoop(st store.Store) *watchLoop {
	w := &watchLoop{
		a:     a,
		st:    st,
		wake:  make(chan struct{}, 1),
		retry: newRetryBackoff(),
	}
	w.sess = reconcile.NewSession(
		reconcile.WithStalenessThreshold(a.cfg.StalenessThresholdMinutes),
		reconcile.WithDebounce(a.cfg.Debounce()),
		reconcile.WithForcePoll(a.cfg.ForcePoll),
		reconcile.WithPollInterval(a.cfg.PollInterval()),
		reconcile.WithNotifier(w.notify),
		reconcile.WithScanOptions(a.scanOptions()),
	)
	return w
}

// notify runs on the watcher goroutine and must not block.
func (w *watchLoop) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// start selects the initial source. A failed watch is not fatal: its
// guidance goes out with the first poll and the loop keeps retrying.
func (w *watchLoop) start(ctx context.Context, sourceID string) error {
	src, err := w.a.resolveSource(ctx, sourceID)
	switch {
	case errors.Is(err, datasource.ErrNoSources):
		w.sess.ShowNoSources()
		w.markFailed(true)
		return nil
	case err != nil:
		return err
	}
	w.src = &src
	if err := w.selectSource(ctx); err != nil {
		fmt.Fprintf(w.a.errOut, "Warning: %v; retrying\n", err)
		w.markFailed(true)
	}
	return nil
}

// selectSource (re)selects the current source and seeds it from the store so
// a restart reconciles instead of duplicating.
func (w *watchLoop) selectSource(ctx context.Context) error {
	err := w.sess.Select(w.a.reconcileSource(*w.src))
	if items, lerr := w.st.List(ctx); lerr == nil {
		n := w.sess.Seed(store.SeedItems(items))
		debug.Log("watch: seeded %d items for %s", n, w.src.ID)
	}
	return err
}

// markFailed schedules a reconnect. With wait set the first attempt is
// delayed so queued guidance reaches the store before state is reset.
func (w *watchLoop) markFailed(wait bool) {
	w.failed = true
	w.nextRetry = w.a.now()
	if wait {
		w.nextRetry = w.nextRetry.Add(w.retry.NextBackOff())
	}
}

// reconnect tries to re-establish the watch once its backoff delay has passed.
// Without a source it looks for a task list to appear.
func (w *watchLoop) reconnect(ctx context.Context) {
	now := w.a.now()
	if !w.failed || now.Before(w.nextRetry) {
		return
	}

	if w.src == nil {
		src, err := datasource.ResolveSource(ctx, w.a.cfg.TasksRoot, "")
		if err != nil {
			w.nextRetry = now.Add(w.retry.NextBackOff())
			return
		}
		w.src = &src
	}

	if err := w.selectSource(ctx); err != nil {
		debug.Log("watch: reselect %s failed: %v", w.src.ID, err)
		w.nextRetry = now.Add(w.retry.NextBackOff())
		return
	}
	w.failed = false
	w.retry.Reset()
}

// step runs one poll: reconnect if needed, apply the ops and list the mirror.
func (w *watchLoop) step(ctx context.Context) (ui.Snapshot, error) {
	w.reconnect(ctx)

	ops := w.sess.Poll()
	if len(ops) > 0 {
		if err := w.st.Apply(ctx, ops); err != nil {
			// State already moved; reselect so the next scan diffs against the store.
			w.markFailed(false)
			return ui.Snapshot{}, err
		}
	}
	if w.sess.Disconnected() && !w.failed {
		debug.Log("watch: watcher disconnected")
		w.markFailed(false)
	}

	items, err := w.st.List(ctx)
	if err != nil {
		return ui.Snapshot{}, err
	}
	_, polling := w.sess.Watching()
	return ui.Snapshot{Applied: len(ops), Items: items, Polling: polling}, nil
}

func (w *watchLoop) title() string {
	if w.src == nil {
		return "taskmirror"
	}
	return "taskmirror: " + w.a.cfg.DisplayName(w.src.ID)
}

func (a *app) runWatch(ctx context.Context, out io.Writer, sourceID string, tui bool) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	w := a.newWatchLoop(st)
	defer w.sess.Stop()

	if err := w.start(ctx, sourceID); err != nil {
		return err
	}

	if tui {
		if debug.Enabled() {
			// The live view owns the terminal; keep debug output out of it.
			logPath := filepath.Join(filepath.Dir(a.cfg.StorePath), "watch-debug.log")
			f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open debug log: %w", err)
			}
			defer f.Close()
			debug.SetOutput(f)
			defer debug.SetOutput(a.errOut)
		}
		return ui.RunLive(ctx, ui.LiveConfig{
			Title:    w.title(),
			Interval: a.cfg.PollInterval(),
			Step:     func() (ui.Snapshot, error) { return w.step(ctx) },
			Wake:     w.wake,
			Rescan:   w.sess.RequestFullScan,
		})
	}

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", w.title())
	ticker := time.NewTicker(a.cfg.PollInterval())
	defer ticker.Stop()

	for {
		snap, err := w.step(ctx)
		switch {
		case err != nil:
			fmt.Fprintf(a.errOut, "Warning: %v\n", err)
		case snap.Applied > 0:
			fmt.Fprintf(out, "%s  applied %d operations\n", a.now().Format("15:04:05"), snap.Applied)
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "Stopped.")
			return nil
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// Package datasource discovers the task lists under a tasks root and checks
// them against what a mirror store holds.
package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/taskmirror/pkg/loader"
)

// DefaultConcurrency bounds parallel directory scans during discovery.
const DefaultConcurrency = 8

// sampleSize is how many subjects a SourceInfo carries.
const sampleSize = 3

// SourceInfo describes one task list directory.
type SourceInfo struct {
	// ID is the directory name, usually a UUID.
	ID string `json:"id"`
	// Path is the absolute directory path.
	Path string `json:"path"`
	// TaskCount is the number of well-formed records.
	TaskCount int `json:"task_count"`
	// ModTime is the directory's last modification time.
	ModTime time.Time `json:"mod_time"`
	// SampleTasks holds the first few subjects in id order.
	SampleTasks []string `json:"sample_tasks,omitempty"`
}

// String returns a human-readable description of the source
func (s SourceInfo) String() string {
	return fmt.Sprintf("%s (%d tasks, mod=%s)", s.Path, s.TaskCount, s.ModTime.Format(time.RFC3339))
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// Root is the tasks root, e.g. ~/.claude/tasks.
	Root string
	// IncludeEmpty keeps directories without any well-formed record.
	IncludeEmpty bool
	// Concurrency limits parallel scans (0 = DefaultConcurrency).
	Concurrency int
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// DiscoverSources lists the task lists under opts.Root, most recently
// modified first. A missing root is not an error and yields no sources.
func DiscoverSources(ctx context.Context, opts DiscoveryOptions) ([]SourceInfo, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve tasks root: %w", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			if opts.Verbose {
				opts.Logger(fmt.Sprintf("Tasks root not found: %s", root))
			}
			return []SourceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read tasks root: %w", err)
	}

	var dirs []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e)
		}
	}

	results := make([]SourceInfo, len(dirs))
	found := make([]bool, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, e := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			info, err := e.Info()
			if err != nil {
				// Removed between ReadDir and now.
				return nil
			}

			path := filepath.Join(root, e.Name())
			tasks := loader.ScanDirWithOptions(path, loader.ScanOptions{
				WarningHandler: func(msg string) {
					if opts.Verbose {
						opts.Logger(msg)
					}
				},
			})

			src := SourceInfo{
				ID:        e.Name(),
				Path:      path,
				TaskCount: len(tasks),
				ModTime:   info.ModTime(),
			}
			for _, t := range tasks {
				if len(src.SampleTasks) == sampleSize {
					break
				}
				src.SampleTasks = append(src.SampleTasks, t.Subject)
			}

			results[i] = src
			found[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sources := make([]SourceInfo, 0, len(results))
	for i, src := range results {
		if !found[i] {
			continue
		}
		if src.TaskCount == 0 && !opts.IncludeEmpty {
			continue
		}
		sources = append(sources, src)
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].ID < sources[j].ID
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d sources in %s", len(sources), root))
	}
	return sources, nil
}

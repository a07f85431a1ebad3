package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/vanderheijden86/taskmirror/pkg/debug"
	"github.com/vanderheijden86/taskmirror/pkg/metrics"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// DefaultMaxRecordSize is the largest record file that will be parsed (10MB).
const DefaultMaxRecordSize = 1024 * 1024 * 10

// ScanOptions configures the behavior of ScanDirWithOptions.
type ScanOptions struct {
	// WarningHandler is called once for every file that is skipped.
	// If nil, warnings go to the debug log.
	WarningHandler func(string)

	// MaxRecordSize skips files larger than this many bytes.
	// If 0, uses DefaultMaxRecordSize.
	MaxRecordSize int64

	// TaskFilter optionally filters parsed tasks. Return true to include.
	TaskFilter func(*model.Task) bool
}

// ScanDir reads every well-formed record in dir, ordered by numeric id.
// A missing directory yields an empty list.
func ScanDir(dir string) []model.Task {
	return ScanDirWithOptions(dir, ScanOptions{})
}

// ScanDirWithOptions is like ScanDir with custom options. The scan is best
// effort: unreadable or malformed files are reported to the warning handler
// and skipped.
func ScanDirWithOptions(dir string, opts ScanOptions) []model.Task {
	defer metrics.Timer(metrics.ScanDuration)()

	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) {
			debug.Log("loader: %s", msg)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			warn(fmt.Sprintf("reading %s: %v", dir, err))
		}
		return []model.Task{}
	}

	tasks := make([]model.Task, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !model.IsRecordPath(e.Name()) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		task, err := readTask(path, opts.MaxRecordSize)
		if err != nil {
			warn(fmt.Sprintf("skipping %s: %v", e.Name(), err))
			continue
		}
		// Full scans key by the record id, watcher events by the file name.
		if stem, ok := model.TaskIDFromPath(e.Name()); ok && stem != task.ID {
			debug.Log("loader: %s holds task id %q; file events will use %q", e.Name(), task.ID, stem)
		}
		if opts.TaskFilter != nil && !opts.TaskFilter(&task) {
			continue
		}
		tasks = append(tasks, task)
	}

	SortTasks(tasks)
	return tasks
}

// ReadTask reads and parses a single record file.
func ReadTask(path string) (model.Task, error) {
	return readTask(path, 0)
}

func readTask(path string, maxSize int64) (model.Task, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxRecordSize
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Task{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return model.Task{}, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > maxSize {
		return model.Task{}, fmt.Errorf("record exceeds %d bytes", maxSize)
	}

	return model.ParseTask(data)
}

// SortTasks orders tasks by ascending numeric id. Non-numeric ids sort as 0
// and ties keep their relative order.
func SortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].SortKey() < tasks[j].SortKey()
	})
}

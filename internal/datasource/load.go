package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/taskmirror/pkg/loader"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// ErrNoSources means the tasks root holds no non-empty task list.
var ErrNoSources = errors.New("no task lists found")

// ErrUnknownSource means a requested id matches no directory.
var ErrUnknownSource = errors.New("unknown task list")

// FindSource returns the source with the given id.
func FindSource(sources []SourceInfo, id string) (SourceInfo, bool) {
	for _, s := range sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceInfo{}, false
}

// ResolveSource picks the source to mirror. An explicit id is looked up
// directly under root, so an empty list can still be selected; without one
// the most recently modified non-empty list wins.
func ResolveSource(ctx context.Context, root, id string) (SourceInfo, error) {
	if id != "" {
		path := filepath.Join(root, id)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return SourceInfo{}, fmt.Errorf("%s: %w", id, ErrUnknownSource)
			}
			return SourceInfo{}, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			return SourceInfo{}, fmt.Errorf("%s is not a directory: %w", path, ErrUnknownSource)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return SourceInfo{}, err
		}
		tasks := loader.ScanDir(abs)
		return SourceInfo{ID: id, Path: abs, TaskCount: len(tasks), ModTime: info.ModTime()}, nil
	}

	sources, err := DiscoverSources(ctx, DiscoveryOptions{Root: root})
	if err != nil {
		return SourceInfo{}, err
	}
	if len(sources) == 0 {
		return SourceInfo{}, ErrNoSources
	}
	return sources[0], nil
}

// LoadTasks resolves a source and reads its records in id order.
func LoadTasks(ctx context.Context, root, id string) (SourceInfo, []model.Task, error) {
	src, err := ResolveSource(ctx, root, id)
	if err != nil {
		return SourceInfo{}, nil, err
	}
	return src, loader.ScanDir(src.Path), nil
}

package reconcile

import (
	"github.com/vanderheijden86/taskmirror/pkg/loader"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/staleness"
)

// SyncOnce returns the operations that bring a mirror holding seed in line
// with src, without watching it. An empty source also gets the waiting
// guidance, ahead of the scan.
func SyncOnce(src Source, seed []SeedItem, opts loader.ScanOptions) ([]mirror.Operation, error) {
	if src.ID == "" || src.Path == "" {
		return nil, ErrNoSource
	}

	st := NewState()
	st.reset(src, staleness.New(staleness.DefaultThresholdMinutes))
	st.Seed(seed)

	if len(loader.ScanDirWithOptions(src.Path, opts)) == 0 {
		st.showGuidance(GuidanceEmptySource, mirror.EmptySourceGuidance(src.DisplayName))
	}

	ops := st.takePending()
	return append(ops, NewEngine(st, opts).FullScan()...), nil
}

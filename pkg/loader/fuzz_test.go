package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/taskmirror/pkg/loader"
)

// FuzzScanDir checks that arbitrary record contents never panic the scan and
// that a file is either loaded or reported, never both.
func FuzzScanDir(f *testing.F) {
	f.Add([]byte(record("1", "ok", "pending")))
	f.Add([]byte(`{"id":"1"}`))
	f.Add([]byte("\xef\xbb\xbf" + record("2", "bom", "completed", "1")))
	f.Add([]byte(`{"id":"1","subject":"x","description":"","activeForm":"","status":"pending","blockedBy":null}`))
	f.Add([]byte(`not json`))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "1.json"), data, 0o644); err != nil {
			t.Fatal(err)
		}

		var warnings int
		tasks := loader.ScanDirWithOptions(dir, loader.ScanOptions{
			WarningHandler: func(string) { warnings++ },
		})
		if len(tasks)+warnings != 1 {
			t.Fatalf("got %d tasks and %d warnings for one file", len(tasks), warnings)
		}
		for _, task := range tasks {
			if task.Blocks == nil || task.BlockedBy == nil {
				t.Errorf("relation lists must not be nil: %+v", task)
			}
		}
	})
}

package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func captureDebug(t *testing.T, on bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer

	mu.Lock()
	prevEnabled, prevLogger := enabled, logger
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		enabled, logger = prevEnabled, prevLogger
		mu.Unlock()
	})

	SetOutput(&buf)
	SetEnabled(on)
	return &buf
}

func TestLog_Disabled(t *testing.T) {
	buf := captureDebug(t, false)
	Log("hidden %d", 1)
	LogTiming("op", time.Millisecond)
	Section("nothing")
	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %q", buf.String())
	}
}

func TestLog_Enabled(t *testing.T) {
	buf := captureDebug(t, true)
	Log("drained %d events", 3)
	LogIf(false, "skipped")
	LogIf(true, "kept")
	Section("poll")

	out := buf.String()
	for _, want := range []string{"[TASKMIRROR]", "drained 3 events", "kept", "=== poll ==="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("LogIf(false) should not log: %q", out)
	}
}

func TestLogEnterExit(t *testing.T) {
	buf := captureDebug(t, true)
	done := LogEnterExit("scan")
	done()

	out := buf.String()
	if !strings.Contains(out, "-> scan") || !strings.Contains(out, "<- scan") {
		t.Errorf("unexpected output: %q", out)
	}
}

package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func stepLive(t *testing.T, m LiveModel, msg tea.Msg) (LiveModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	lm, ok := updated.(LiveModel)
	if !ok {
		t.Fatalf("Update returned %T, want LiveModel", updated)
	}
	return lm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestLiveModel_StepRendersItems(t *testing.T) {
	m := NewLiveModel(LiveConfig{Title: "abc"})
	m, _ = stepLive(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})

	m, cmd := stepLive(t, m, liveStepMsg{snap: Snapshot{Applied: 5, Items: sampleItems()}})
	if cmd == nil {
		t.Fatal("expected the next tick to be scheduled")
	}
	if m.Steps() != 1 {
		t.Errorf("Steps = %d, want 1", m.Steps())
	}

	view := m.View()
	for _, want := range []string{"abc", "5 ops applied", "Write parser", "3 tasks: 1 done"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestLiveModel_PollingMode(t *testing.T) {
	m := NewLiveModel(LiveConfig{Title: "abc"})
	m, _ = stepLive(t, m, liveStepMsg{snap: Snapshot{Polling: true}})
	if !strings.Contains(m.View(), "polling") {
		t.Errorf("view should show polling mode:\n%s", m.View())
	}
}

func TestLiveModel_StaleTickIgnored(t *testing.T) {
	m := NewLiveModel(LiveConfig{Title: "abc"})
	m, _ = stepLive(t, m, liveStepMsg{})
	m, _ = stepLive(t, m, liveStepMsg{})

	if _, cmd := stepLive(t, m, liveTickMsg{seq: 0}); cmd != nil {
		t.Error("tick from a superseded schedule should be dropped")
	}

	m, cmd := stepLive(t, m, liveTickMsg{seq: m.seq})
	if cmd == nil || !m.stepping {
		t.Fatal("current tick should start a step")
	}
	if _, cmd := stepLive(t, m, liveTickMsg{seq: m.seq}); cmd != nil {
		t.Error("tick while a step is running should be dropped")
	}
}

func TestLiveModel_StepErrorShown(t *testing.T) {
	m := NewLiveModel(LiveConfig{Title: "abc"})
	m, cmd := stepLive(t, m, liveStepMsg{err: errors.New("database is locked")})
	if cmd == nil {
		t.Error("a failed step should still schedule the next tick")
	}
	if !strings.Contains(m.View(), "database is locked") {
		t.Errorf("view should show the error:\n%s", m.View())
	}
}

func TestLiveModel_DisconnectQuits(t *testing.T) {
	m := NewLiveModel(LiveConfig{Title: "abc"})
	m, cmd := stepLive(t, m, liveStepMsg{snap: Snapshot{Disconnected: true}})
	if !isQuit(cmd) {
		t.Fatal("disconnect should quit")
	}
	if !errors.Is(m.Err(), ErrDisconnected) {
		t.Errorf("Err = %v, want ErrDisconnected", m.Err())
	}
}

func TestLiveModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		m := NewLiveModel(LiveConfig{Title: "abc"})
		if _, cmd := stepLive(t, m, key); !isQuit(cmd) {
			t.Errorf("key %q should quit", key.String())
		}
	}
}

func TestLiveModel_RescanKey(t *testing.T) {
	rescans, steps := 0, 0
	m := NewLiveModel(LiveConfig{
		Title:  "abc",
		Rescan: func() { rescans++ },
		Step: func() (Snapshot, error) {
			steps++
			return Snapshot{Applied: 2}, nil
		},
	})

	m, cmd := stepLive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if rescans != 1 {
		t.Fatalf("rescans = %d, want 1", rescans)
	}
	if cmd == nil {
		t.Fatal("expected a step after rescan")
	}
	msg, ok := cmd().(liveStepMsg)
	if !ok || steps != 1 || msg.snap.Applied != 2 {
		t.Fatalf("unexpected step result %#v (steps=%d)", msg, steps)
	}

	// A second press while the step is in flight only requests the scan.
	_, cmd = stepLive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if rescans != 2 {
		t.Errorf("rescans = %d, want 2", rescans)
	}
	if cmd != nil {
		t.Error("no second step should start while one is running")
	}
}

package mirror

import (
	"testing"

	"github.com/vanderheijden86/taskmirror/pkg/model"
)

func TestNoSourcesGuidance(t *testing.T) {
	ops := NoSourcesGuidance()
	if len(ops) != 4 {
		t.Fatalf("expected 4 ops, got %d", len(ops))
	}
	if ops[0].ID != GuidanceHeaderID || ops[0].Content != MsgSetupRequired || ops[0].State != model.StateQuestion {
		t.Errorf("unexpected header: %+v", ops[0])
	}
	for _, op := range ops[1:3] {
		if op.ParentID != GuidanceHeaderID || op.Indent != 1 {
			t.Errorf("child not parented to header: %+v", op)
		}
	}
	if string(ops[3].Metadata) != `{"source":"taskmirror","type":"guidance"}` {
		t.Errorf("metadata = %s", ops[3].Metadata)
	}
}

func TestEmptySourceGuidance(t *testing.T) {
	ops := EmptySourceGuidance("Proj (abcdef12...)")
	if got := ops[0].Content; got != "CLAUDE TASKLIST: Proj (abcdef12...) - Waiting for tasks" {
		t.Errorf("header content = %q", got)
	}
	if ops[1].Content != MsgNoTasksYet || ops[2].Content != MsgTasksWillAppear {
		t.Errorf("unexpected children: %q, %q", ops[1].Content, ops[2].Content)
	}
}

func TestErrorGuidance(t *testing.T) {
	ops := ErrorGuidance(MsgWatcherFailed, "inotify watch limit reached", MsgRestartAction)
	if ops[0].State != model.StateExclamation {
		t.Errorf("error header state = %v", ops[0].State)
	}
	if ops[2].Content != "Action: Restart taskmirror to retry" {
		t.Errorf("action = %q", ops[2].Content)
	}

	meta, err := ParseMetadata(ops[3].Metadata)
	if err != nil {
		t.Fatal(err)
	}
	if !meta.IsGuidance() || !meta.Error {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestClearGuidance_CoversEveryPlaceholder(t *testing.T) {
	created := map[string]bool{}
	for _, ops := range [][]Operation{NoSourcesGuidance(), EmptySourceGuidance("x"), ErrorGuidance("a", "b", "c")} {
		for _, op := range ops {
			if op.Kind == KindCreateItem {
				created[op.ID] = true
			}
		}
	}

	deleted := map[string]bool{}
	for _, op := range ClearGuidance() {
		if op.Kind != KindDeleteItem {
			t.Fatalf("unexpected op %s", op)
		}
		deleted[op.ID] = true
	}

	if len(deleted) != 9 {
		t.Errorf("expected 9 deletes, got %d", len(deleted))
	}
	for id := range created {
		if !deleted[id] {
			t.Errorf("placeholder %s is never cleared", id)
		}
		if !IsGuidanceID(id) {
			t.Errorf("IsGuidanceID(%s) = false", id)
		}
	}
}

package mirror

import (
	"testing"

	"github.com/vanderheijden86/taskmirror/pkg/analysis"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

func TestIDs(t *testing.T) {
	if got := HeaderID("abc"); got != "header-abc" {
		t.Errorf("HeaderID = %q", got)
	}
	if got := ItemID("abc", "7"); got != "abc-7" {
		t.Errorf("ItemID = %q", got)
	}

	id, ok := TaskIDFromItemID("abc-def", "abc-def-12")
	if !ok || id != "12" {
		t.Errorf("TaskIDFromItemID = (%q, %v)", id, ok)
	}
	if _, ok := TaskIDFromItemID("abc", "header-abc"); ok {
		t.Error("header id should not parse as an item id")
	}
	if _, ok := TaskIDFromItemID("abc", "abc-"); ok {
		t.Error("empty task id should not parse")
	}
}

func TestItemContent(t *testing.T) {
	task := model.Task{ID: "2", Subject: "Deploy"}
	tests := []struct {
		name string
		ann  analysis.Annotation
		want string
	}{
		{"plain", analysis.Annotation{}, "Deploy"},
		{"blocked", analysis.Annotation{Kind: analysis.AnnotationBlockedBy, Blockers: []string{"Build", "Test"}}, "🔒 Deploy (blocked by: Build, Test)"},
		{"cyclic", analysis.Annotation{Kind: analysis.AnnotationCyclic}, "⚠ Circular dependency Deploy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemContent(task, tt.ann); got != tt.want {
				t.Errorf("ItemContent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreateItem(t *testing.T) {
	task := model.Task{ID: "2", Subject: "Deploy", Status: model.StatusInProgress, BlockedBy: []string{"1"}}
	ops := CreateItem("src", task, analysis.Annotation{})
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(ops))
	}

	create := ops[0]
	if create.Kind != KindCreateItem || create.ID != "src-2" || create.ParentID != "header-src" {
		t.Errorf("unexpected create: %s", create)
	}
	if create.State != model.StateInProgress || create.Indent != 1 || !create.Has(FieldContent) {
		t.Errorf("unexpected create fields: %+v", create)
	}

	meta := ops[1]
	want := `{"source":"taskmirror","tasklist_id":"src","task_id":"2","read_only":true,"blocked_by":["1"]}`
	if meta.Kind != KindSetMetadata || meta.ID != "src-2" || string(meta.Metadata) != want {
		t.Errorf("metadata = %s, want %s", meta.Metadata, want)
	}
	if meta.Merge {
		t.Error("correlation metadata must replace, not merge")
	}
}

func TestSetCorrelation_EmptyBlockedBy(t *testing.T) {
	op := SetCorrelation("s", model.Task{ID: "1"})
	want := `{"source":"taskmirror","tasklist_id":"s","task_id":"1","read_only":true,"blocked_by":[]}`
	if string(op.Metadata) != want {
		t.Errorf("metadata = %s, want %s", op.Metadata, want)
	}
}

func TestUpdateItem_SubjectOnly(t *testing.T) {
	op := UpdateItem("s", model.Task{ID: "3", Subject: "Ship", Status: model.StatusCompleted, BlockedBy: []string{"1"}})
	if op.Content != "Ship" || op.State != model.StateChecked || op.Fields != FieldAll {
		t.Errorf("unexpected update: %+v", op)
	}
}

func TestHeaderOperations(t *testing.T) {
	create := CreateHeader("s", "My List")
	if create.Content != "CLAUDE TASKLIST: My List" || create.ID != "header-s" {
		t.Errorf("unexpected header: %+v", create)
	}

	fresh := UpdateHeader("s", "My List", "", false)
	if fresh.Content != "CLAUDE TASKLIST: My List" || fresh.Has(FieldState) {
		t.Errorf("unexpected fresh header update: %+v", fresh)
	}

	stale := UpdateHeader("s", "My List", "1h5m", true)
	if stale.Content != "CLAUDE TASKLIST: My List ⏰ STALE (1h5m)" {
		t.Errorf("stale header = %q", stale.Content)
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	for k := range kindNames {
		b, _ := k.MarshalText()
		var got Kind
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Errorf("round trip %v: got %v, err %v", k, got, err)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("explode")); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestIDsFilter(t *testing.T) {
	ops := []Operation{DeleteItem("a"), CreateHeader("s", "n"), DeleteItem("b")}
	got := IDs(ops, KindDeleteItem)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("IDs = %v", got)
	}
}

func TestSubjectFromContent(t *testing.T) {
	tests := map[string]string{
		"Deploy":                                "Deploy",
		"🔒 Deploy (blocked by: Build, Test)":    "Deploy",
		"⚠ Circular dependency Deploy":          "Deploy",
		"🔒 Deploy":                              "🔒 Deploy",
		"Fix (blocked by: nothing) in the docs": "Fix (blocked by: nothing) in the docs",
	}
	for in, want := range tests {
		if got := SubjectFromContent(in); got != want {
			t.Errorf("SubjectFromContent(%q) = %q, want %q", in, got, want)
		}
	}
}

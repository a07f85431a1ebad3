package mirror

import (
	"strings"

	"github.com/vanderheijden86/taskmirror/pkg/analysis"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// HeaderPrefix starts every source header's content.
const HeaderPrefix = "CLAUDE TASKLIST: "

const (
	blockedGlyph = "🔒"
	staleGlyph   = "⏰"
)

// HeaderContent renders a header, with a staleness suffix when stale is set.
func HeaderContent(displayName, staleFor string, stale bool) string {
	if stale {
		return HeaderPrefix + displayName + " " + staleGlyph + " STALE (" + staleFor + ")"
	}
	return HeaderPrefix + displayName
}

// CreateHeader creates the top-level item for a source.
func CreateHeader(sourceID, displayName string) Operation {
	return Operation{
		Kind:    KindCreateHeader,
		ID:      HeaderID(sourceID),
		Content: HeaderContent(displayName, "", false),
		State:   model.StateEmpty,
		Fields:  FieldAll,
	}
}

// UpdateHeader rewrites the header content, leaving its state alone.
func UpdateHeader(sourceID, displayName, staleFor string, stale bool) Operation {
	return Operation{
		Kind:    KindUpdateItem,
		ID:      HeaderID(sourceID),
		Content: HeaderContent(displayName, staleFor, stale),
		Fields:  FieldContent,
	}
}

// ItemContent renders a task's content with its dependency annotation.
func ItemContent(task model.Task, ann analysis.Annotation) string {
	switch ann.Kind {
	case analysis.AnnotationCyclic:
		return ann.String() + " " + task.Subject
	case analysis.AnnotationBlockedBy:
		return blockedGlyph + " " + task.Subject + " " + ann.String()
	default:
		return task.Subject
	}
}

// CreateItem returns the create and correlation metadata operations for a task.
func CreateItem(sourceID string, task model.Task, ann analysis.Annotation) []Operation {
	id := ItemID(sourceID, task.ID)
	return []Operation{
		{
			Kind:     KindCreateItem,
			ID:       id,
			ParentID: HeaderID(sourceID),
			Content:  ItemContent(task, ann),
			State:    task.State(),
			Indent:   1,
			Fields:   FieldAll,
		},
		SetCorrelation(sourceID, task),
	}
}

// SetCorrelation replaces a task item's correlation metadata.
func SetCorrelation(sourceID string, task model.Task) Operation {
	return Operation{
		Kind:     KindSetMetadata,
		ID:       ItemID(sourceID, task.ID),
		Metadata: mustEncode(NewCorrelation(sourceID, task.ID, task.BlockedBy)),
	}
}

// UpdateItem sets an existing item's content to the task subject and its state
// to the mapped status.
func UpdateItem(sourceID string, task model.Task) Operation {
	return Operation{
		Kind:    KindUpdateItem,
		ID:      ItemID(sourceID, task.ID),
		Content: task.Subject,
		State:   task.State(),
		Fields:  FieldAll,
	}
}

// DeleteItem removes an item by id.
func DeleteItem(id string) Operation {
	return Operation{Kind: KindDeleteItem, ID: id}
}

// SubjectFromContent strips a dependency annotation from stored item content.
func SubjectFromContent(content string) string {
	if rest, ok := strings.CutPrefix(content, analysis.CyclicMarker+" "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(content, blockedGlyph+" "); ok {
		if i := strings.LastIndex(rest, " (blocked by: "); i >= 0 && strings.HasSuffix(rest, ")") {
			return rest[:i]
		}
	}
	return content
}

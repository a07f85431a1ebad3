package mirror

import (
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// Placeholder item ids. Clearing guidance deletes all of them.
const (
	GuidanceHeaderID        = "guidance-header"
	GuidanceNoTasklistID    = "guidance-no-tasklist"
	GuidanceStartClaudeID   = "guidance-start-claude"
	GuidanceNoTasksID       = "guidance-no-tasks"
	GuidanceTasksAppearID   = "guidance-tasks-appear"
	GuidanceWaitingHeaderID = "guidance-waiting-header"
	GuidanceErrorHeaderID   = "guidance-error-header"
	GuidanceErrorDetailID   = "guidance-error-detail"
	GuidanceErrorActionID   = "guidance-error-action"
)

// GuidanceIDs lists every placeholder id.
var GuidanceIDs = []string{
	GuidanceHeaderID,
	GuidanceNoTasklistID,
	GuidanceStartClaudeID,
	GuidanceNoTasksID,
	GuidanceTasksAppearID,
	GuidanceWaitingHeaderID,
	GuidanceErrorHeaderID,
	GuidanceErrorDetailID,
	GuidanceErrorActionID,
}

// Guidance messages.
const (
	MsgSetupRequired   = "CLAUDE TASKS - Setup Required"
	MsgNoTasklists     = "No Claude tasklists found in ~/.claude/tasks/"
	MsgStartClaude     = "Start a Claude Code session to create a tasklist"
	MsgNoTasksYet      = "Claude hasn't created any tasks yet"
	MsgTasksWillAppear = "Tasks will appear here as Claude works"
	MsgWatcherFailed   = "CLAUDE TASKS - Watcher Failed"
	MsgRestartAction   = "Restart taskmirror to retry"
)

func placeholder(id, parent, content string, state model.VisualState) Operation {
	indent := 0
	if parent != "" {
		indent = 1
	}
	return Operation{
		Kind:     KindCreateItem,
		ID:       id,
		ParentID: parent,
		Content:  content,
		State:    state,
		Indent:   indent,
		Fields:   FieldAll,
	}
}

func guidanceMeta(id string, isError bool) Operation {
	return Operation{
		Kind:     KindSetMetadata,
		ID:       id,
		Metadata: mustEncode(guidanceMetadata{Source: EngineName, Type: MetadataTypeGuidance, Error: isError}),
	}
}

// NoSourcesGuidance explains that no task lists exist yet.
func NoSourcesGuidance() []Operation {
	return []Operation{
		placeholder(GuidanceHeaderID, "", MsgSetupRequired, model.StateQuestion),
		placeholder(GuidanceNoTasklistID, GuidanceHeaderID, MsgNoTasklists, model.StateEmpty),
		placeholder(GuidanceStartClaudeID, GuidanceHeaderID, MsgStartClaude, model.StateEmpty),
		guidanceMeta(GuidanceHeaderID, false),
	}
}

// EmptySourceGuidance explains that the selected list has no tasks yet.
func EmptySourceGuidance(displayName string) []Operation {
	return []Operation{
		placeholder(GuidanceWaitingHeaderID, "", HeaderPrefix+displayName+" - Waiting for tasks", model.StateEmpty),
		placeholder(GuidanceNoTasksID, GuidanceWaitingHeaderID, MsgNoTasksYet, model.StateEmpty),
		placeholder(GuidanceTasksAppearID, GuidanceWaitingHeaderID, MsgTasksWillAppear, model.StateEmpty),
		guidanceMeta(GuidanceWaitingHeaderID, false),
	}
}

// ErrorGuidance reports a failure with an explanation and a recovery action.
func ErrorGuidance(title, detail, action string) []Operation {
	return []Operation{
		placeholder(GuidanceErrorHeaderID, "", title, model.StateExclamation),
		placeholder(GuidanceErrorDetailID, GuidanceErrorHeaderID, detail, model.StateEmpty),
		placeholder(GuidanceErrorActionID, GuidanceErrorHeaderID, "Action: "+action, model.StateEmpty),
		guidanceMeta(GuidanceErrorHeaderID, true),
	}
}

// ClearGuidance deletes every placeholder item.
func ClearGuidance() []Operation {
	ops := make([]Operation, len(GuidanceIDs))
	for i, id := range GuidanceIDs {
		ops[i] = DeleteItem(id)
	}
	return ops
}

// IsGuidanceID reports whether id is a placeholder item id.
func IsGuidanceID(id string) bool {
	for _, g := range GuidanceIDs {
		if g == id {
			return true
		}
	}
	return false
}

package mirror

import "strings"

// EngineName is written into every metadata document as "source".
const EngineName = "taskmirror"

const headerPrefix = "header-"

// HeaderID is the id of a source's header item.
func HeaderID(sourceID string) string {
	return headerPrefix + sourceID
}

// ItemID is the correlation id of a mirrored task.
func ItemID(sourceID, taskID string) string {
	return sourceID + "-" + taskID
}

// TaskIDFromItemID reverses ItemID for a known source.
func TaskIDFromItemID(sourceID, itemID string) (string, bool) {
	prefix := sourceID + "-"
	if !strings.HasPrefix(itemID, prefix) || len(itemID) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(itemID, prefix), true
}

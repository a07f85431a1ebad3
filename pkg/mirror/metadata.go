package mirror

import (
	"github.com/goccy/go-json"
)

// Metadata types written by the engine.
const (
	MetadataTypeGuidance = "guidance"
)

// Correlation links a mirrored item back to its source task.
type Correlation struct {
	Source     string   `json:"source"`
	TasklistID string   `json:"tasklist_id"`
	TaskID     string   `json:"task_id"`
	ReadOnly   bool     `json:"read_only"`
	BlockedBy  []string `json:"blocked_by"`
}

// NewCorrelation returns the correlation document for a task.
func NewCorrelation(sourceID, taskID string, blockedBy []string) Correlation {
	deps := make([]string, len(blockedBy))
	copy(deps, blockedBy)
	return Correlation{
		Source:     EngineName,
		TasklistID: sourceID,
		TaskID:     taskID,
		ReadOnly:   true,
		BlockedBy:  deps,
	}
}

type guidanceMetadata struct {
	Source string `json:"source"`
	Type   string `json:"type"`
	Error  bool   `json:"error,omitempty"`
}

// ItemMetadata is the union of fields the engine may find on a stored item.
type ItemMetadata struct {
	Source     string   `json:"source"`
	TasklistID string   `json:"tasklist_id,omitempty"`
	TaskID     string   `json:"task_id,omitempty"`
	ReadOnly   bool     `json:"read_only,omitempty"`
	BlockedBy  []string `json:"blocked_by,omitempty"`
	Type       string   `json:"type,omitempty"`
	Error      bool     `json:"error,omitempty"`
}

// IsGuidance reports whether the metadata marks a placeholder item.
func (m ItemMetadata) IsGuidance() bool {
	return m.Type == MetadataTypeGuidance
}

// ParseMetadata decodes a stored metadata document.
func ParseMetadata(data []byte) (ItemMetadata, error) {
	var m ItemMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return ItemMetadata{}, err
	}
	return m, nil
}

func mustEncode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Only fixed struct types of strings, bools and string slices reach here.
		panic("mirror: encode metadata: " + err.Error())
	}
	return b
}

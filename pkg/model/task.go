// Package model defines the task records read from a source directory and the
// visual states they map to in the mirrored todo list.
package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// RecordExt is the file extension of a task record.
const RecordExt = ".json"

// Status is the lifecycle status written by the agent.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Normalize maps unknown statuses to pending.
func (s Status) Normalize() Status {
	if s.IsValid() {
		return s
	}
	return StatusPending
}

// VisualState is the checkbox state of a mirrored item.
type VisualState string

const (
	StateEmpty       VisualState = "empty"
	StateInProgress  VisualState = "in-progress"
	StateChecked     VisualState = "checked"
	StateQuestion    VisualState = "question"
	StateExclamation VisualState = "exclamation"
)

// VisualState maps a status to the mirrored checkbox state.
func (s Status) VisualState() VisualState {
	switch s {
	case StatusInProgress:
		return StateInProgress
	case StatusCompleted:
		return StateChecked
	default:
		return StateEmpty
	}
}

// Symbol returns a short glyph for terminal rendering.
func (v VisualState) Symbol() string {
	switch v {
	case StateInProgress:
		return "[~]"
	case StateChecked:
		return "[x]"
	case StateQuestion:
		return "[?]"
	case StateExclamation:
		return "[!]"
	default:
		return "[ ]"
	}
}

// Task is one record file. A new read replaces the previous value entirely.
type Task struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	ActiveForm  string   `json:"activeForm"`
	Status      Status   `json:"status"`
	Blocks      []string `json:"blocks"`
	BlockedBy   []string `json:"blockedBy"`
}

// State returns the mirrored visual state for the task.
func (t Task) State() VisualState {
	return t.Status.VisualState()
}

// SortKey is the numeric ordering key; non-numeric ids sort as 0.
func (t Task) SortKey() int {
	n, err := strconv.Atoi(t.ID)
	if err != nil {
		return 0
	}
	return n
}

// ErrMalformed is returned when a record is missing required fields.
var ErrMalformed = errors.New("malformed task record")

// wireTask uses pointers so missing required fields can be told apart from empty ones.
type wireTask struct {
	ID          *string  `json:"id"`
	Subject     *string  `json:"subject"`
	Description *string  `json:"description"`
	ActiveForm  *string  `json:"activeForm"`
	Status      *string  `json:"status"`
	Blocks      []string `json:"blocks"`
	BlockedBy   []string `json:"blockedBy"`
}

// ParseTask decodes a record. blocks and blockedBy default to empty lists.
func ParseTask(data []byte) (Task, error) {
	data = stripBOM(data)

	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}

	var missing []string
	if w.ID == nil {
		missing = append(missing, "id")
	}
	if w.Subject == nil {
		missing = append(missing, "subject")
	}
	if w.Description == nil {
		missing = append(missing, "description")
	}
	if w.ActiveForm == nil {
		missing = append(missing, "activeForm")
	}
	if w.Status == nil {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return Task{}, fmt.Errorf("%w: missing %s", ErrMalformed, strings.Join(missing, ", "))
	}

	t := Task{
		ID:          *w.ID,
		Subject:     *w.Subject,
		Description: *w.Description,
		ActiveForm:  *w.ActiveForm,
		Status:      Status(*w.Status),
		Blocks:      w.Blocks,
		BlockedBy:   w.BlockedBy,
	}
	if t.Blocks == nil {
		t.Blocks = []string{}
	}
	if t.BlockedBy == nil {
		t.BlockedBy = []string{}
	}
	return t, nil
}

// IsRecordPath reports whether path names a task record file.
func IsRecordPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), RecordExt)
}

// TaskIDFromPath derives the task id from a record's filename stem.
func TaskIDFromPath(path string) (string, bool) {
	if !IsRecordPath(path) {
		return "", false
	}
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	if id == "" {
		return "", false
	}
	return id, true
}

func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

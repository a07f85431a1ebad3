// Package mirror describes the operations the sync engine hands to the
// downstream todo store, and the deterministic ids that address them.
//
// Every mirrored item id is a pure function of (source id, task id), so an
// operation can target an existing item without looking it up first.
package mirror

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// Kind tags a mirror operation.
type Kind int

const (
	KindCreateHeader Kind = iota + 1
	KindCreateItem
	KindSetMetadata
	KindUpdateItem
	KindDeleteItem
)

var kindNames = map[Kind]string{
	KindCreateHeader: "create-header",
	KindCreateItem:   "create-item",
	KindSetMetadata:  "set-metadata",
	KindUpdateItem:   "update-item",
	KindDeleteItem:   "delete-item",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown operation kind %q", b)
}

// Field selects which item fields an update touches.
type Field uint8

const (
	FieldContent Field = 1 << iota
	FieldState

	FieldAll = FieldContent | FieldState
)

// Operation is one instruction for the downstream store.
type Operation struct {
	Kind     Kind              `json:"kind"`
	ID       string            `json:"id"`
	ParentID string            `json:"parent_id,omitempty"`
	Content  string            `json:"content,omitempty"`
	State    model.VisualState `json:"state,omitempty"`
	Indent   int               `json:"indent,omitempty"`
	Fields   Field             `json:"fields,omitempty"`

	// Metadata is the encoded JSON document for KindSetMetadata.
	Metadata json.RawMessage `json:"metadata,omitempty"`
	// Merge asks the store to merge instead of replace; the engine always replaces.
	Merge bool `json:"merge,omitempty"`
}

// Has reports whether the operation carries field f.
func (op Operation) Has(f Field) bool {
	return op.Fields&f != 0
}

func (op Operation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", op.Kind, op.ID)
	if op.ParentID != "" {
		fmt.Fprintf(&b, " parent=%s", op.ParentID)
	}
	if op.Has(FieldState) {
		fmt.Fprintf(&b, " state=%s", op.State)
	}
	if op.Has(FieldContent) {
		fmt.Fprintf(&b, " content=%q", op.Content)
	}
	if op.Kind == KindSetMetadata {
		fmt.Fprintf(&b, " metadata=%s", op.Metadata)
	}
	return b.String()
}

// IDs returns the target ids of ops with the given kind, in order.
func IDs(ops []Operation, kind Kind) []string {
	var ids []string
	for _, op := range ops {
		if op.Kind == kind {
			ids = append(ids, op.ID)
		}
	}
	return ids
}

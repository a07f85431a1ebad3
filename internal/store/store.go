// Package store holds the downstream todo lists the sync engine mirrors into.
//
// A store applies mirror operations addressed by deterministic ids and can
// list what it holds, which is how a restarted process seeds its state.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
	"github.com/vanderheijden86/taskmirror/pkg/reconcile"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("item not found")

// Item is one entry of the downstream todo list.
type Item struct {
	ID       string            `json:"id"`
	ParentID string            `json:"parent_id,omitempty"`
	Content  string            `json:"content"`
	State    model.VisualState `json:"state"`
	Indent   int               `json:"indent"`
	Metadata map[string]any    `json:"metadata,omitempty"`
	Position int               `json:"position"`
}

// MetadataJSON encodes the item's metadata, or returns nil when it has none.
func (it Item) MetadataJSON() []byte {
	if len(it.Metadata) == 0 {
		return nil
	}
	b, err := json.Marshal(it.Metadata)
	if err != nil {
		return nil
	}
	return b
}

// Correlation decodes the item's metadata into the engine's view of it.
func (it Item) Correlation() (mirror.ItemMetadata, bool) {
	raw := it.MetadataJSON()
	if raw == nil {
		return mirror.ItemMetadata{}, false
	}
	meta, err := mirror.ParseMetadata(raw)
	if err != nil || meta.Source != mirror.EngineName {
		return mirror.ItemMetadata{}, false
	}
	return meta, true
}

// Store is a downstream todo list.
type Store interface {
	// Apply executes ops in order. Either all of them take effect or none.
	Apply(ctx context.Context, ops []mirror.Operation) error
	// List returns every item in position order.
	List(ctx context.Context) ([]Item, error)
	// Get returns one item or ErrNotFound.
	Get(ctx context.Context, id string) (Item, error)
	Close() error
}

var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Memory)(nil)
)

// SeedItems converts stored items for reconcile.Session.Seed.
func SeedItems(items []Item) []reconcile.SeedItem {
	out := make([]reconcile.SeedItem, 0, len(items))
	for _, it := range items {
		out = append(out, reconcile.SeedItem{
			ID:       it.ID,
			Content:  it.Content,
			State:    it.State,
			Metadata: it.MetadataJSON(),
		})
	}
	return out
}

// SourceItems returns the items belonging to one mirrored source: its header
// and every item whose correlation names it.
func SourceItems(items []Item, sourceID string) []Item {
	header := mirror.HeaderID(sourceID)
	var out []Item
	for _, it := range items {
		if it.ID == header {
			out = append(out, it)
			continue
		}
		if meta, ok := it.Correlation(); ok && meta.TasklistID == sourceID {
			out = append(out, it)
		}
	}
	return out
}

func decodeMetadata(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func mergeMetadata(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vanderheijden86/taskmirror/pkg/metrics"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
)

// Memory is an in-process Store. It backs dry runs and tests.
type Memory struct {
	mu      sync.RWMutex
	items   map[string]*Item
	nextPos int
	applied int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]*Item)}
}

// Apply implements Store. A failing operation leaves the store untouched.
func (m *Memory) Apply(ctx context.Context, ops []mirror.Operation) error {
	defer metrics.Timer(metrics.ApplyDuration)()
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := make(map[string]*Item, len(m.items))
	for id, it := range m.items {
		cp := *it
		cp.Metadata = mergeMetadata(nil, it.Metadata)
		work[id] = &cp
	}
	next := m.nextPos

	for i, op := range ops {
		if err := applyMemoryOp(work, &next, op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, op.Kind, err)
		}
	}

	m.items = work
	m.nextPos = next
	m.applied += len(ops)
	return nil
}

func applyMemoryOp(items map[string]*Item, next *int, op mirror.Operation) error {
	switch op.Kind {
	case mirror.KindCreateHeader, mirror.KindCreateItem:
		if it, ok := items[op.ID]; ok {
			it.ParentID = op.ParentID
			it.Content = op.Content
			it.State = op.State
			it.Indent = op.Indent
			return nil
		}
		items[op.ID] = &Item{
			ID:       op.ID,
			ParentID: op.ParentID,
			Content:  op.Content,
			State:    op.State,
			Indent:   op.Indent,
			Position: *next,
		}
		*next++
	case mirror.KindUpdateItem:
		it, ok := items[op.ID]
		if !ok {
			return nil
		}
		if op.Has(mirror.FieldContent) {
			it.Content = op.Content
		}
		if op.Has(mirror.FieldState) {
			it.State = op.State
		}
	case mirror.KindSetMetadata:
		meta, err := decodeMetadata(op.Metadata)
		if err != nil {
			return err
		}
		it, ok := items[op.ID]
		if !ok {
			return nil
		}
		if op.Merge {
			it.Metadata = mergeMetadata(it.Metadata, meta)
		} else {
			it.Metadata = meta
		}
	case mirror.KindDeleteItem:
		delete(items, op.ID)
	default:
		return fmt.Errorf("unsupported operation kind %d", int(op.Kind))
	}
	return nil
}

// List implements Store.
func (m *Memory) List(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		cp := *it
		cp.Metadata = mergeMetadata(nil, it.Metadata)
		if len(cp.Metadata) == 0 {
			cp.Metadata = nil
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, id string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	cp := *it
	cp.Metadata = mergeMetadata(nil, it.Metadata)
	if len(cp.Metadata) == 0 {
		cp.Metadata = nil
	}
	return cp, nil
}

// Applied returns how many operations have been applied.
func (m *Memory) Applied() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applied
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}

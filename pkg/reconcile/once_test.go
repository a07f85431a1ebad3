package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

func TestSyncOnce_FreshMirror(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "1", "Design schema", model.StatusCompleted)
	writeTask(t, dir, "2", "Write migrations", model.StatusPending, "1")

	ops, err := SyncOnce(Source{ID: "abc", Path: dir, DisplayName: "abc"}, nil, loaderOpts())
	require.NoError(t, err)
	assert.Equal(t, []mirror.Kind{
		mirror.KindCreateHeader,
		mirror.KindCreateItem, mirror.KindSetMetadata,
		mirror.KindCreateItem, mirror.KindSetMetadata,
	}, kinds(ops))
	assert.Equal(t, "🔒 Write migrations (blocked by: Design schema)", ops[3].Content)
}

func TestSyncOnce_SeededMirrorOnlyDiffs(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "1", "Design schema", model.StatusCompleted)
	writeTask(t, dir, "2", "Write migrations", model.StatusInProgress)

	seed := []SeedItem{
		{ID: mirror.HeaderID("abc"), Content: "CLAUDE TASKLIST: abc", State: model.StateEmpty},
		{ID: mirror.ItemID("abc", "1"), Content: "Design schema", State: model.StateChecked, Metadata: mustMeta(t, "abc", "1")},
		{ID: mirror.ItemID("abc", "2"), Content: "Write migrations", State: model.StateEmpty, Metadata: mustMeta(t, "abc", "2")},
		{ID: mirror.ItemID("abc", "3"), Content: "Gone", State: model.StateEmpty, Metadata: mustMeta(t, "abc", "3")},
		{ID: mirror.GuidanceWaitingHeaderID, Content: "waiting", State: model.StateEmpty},
	}

	ops, err := SyncOnce(Source{ID: "abc", Path: dir, DisplayName: "abc"}, seed, loaderOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{mirror.GuidanceWaitingHeaderID, mirror.ItemID("abc", "3")}, mirror.IDs(ops, mirror.KindDeleteItem))
	assert.Equal(t, []string{mirror.ItemID("abc", "2")}, mirror.IDs(ops, mirror.KindUpdateItem))
	assert.Empty(t, mirror.IDs(ops, mirror.KindCreateItem))
	assert.Empty(t, mirror.IDs(ops, mirror.KindCreateHeader))
}

func TestSyncOnce_EmptySource(t *testing.T) {
	dir := t.TempDir()

	ops, err := SyncOnce(Source{ID: "abc", Path: dir, DisplayName: "abc"}, nil, loaderOpts())
	require.NoError(t, err)
	require.NotEmpty(t, ops)
	assert.Equal(t, mirror.GuidanceWaitingHeaderID, ops[0].ID)
	assert.Equal(t, []string{mirror.HeaderID("abc")}, mirror.IDs(ops, mirror.KindCreateHeader))
}

func TestSyncOnce_RequiresSource(t *testing.T) {
	_, err := SyncOnce(Source{ID: "abc"}, nil, loaderOpts())
	assert.ErrorIs(t, err, ErrNoSource)
}

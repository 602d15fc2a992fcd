package gc

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittotree/pkg/kv/memory"
	"github.com/marmos91/dittotree/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New(memory.NewMemoryStore(), tree.Config{})
	require.NoError(t, tr.Init(context.Background()))
	return tr
}

func mustCreate(t *testing.T, tr *tree.Tree, path string, opts ...tree.CreateOption) tree.NodeID {
	t.Helper()
	id, err := tr.CreateChildNode(context.Background(), path, nil, opts...)
	require.NoError(t, err)
	return id
}

func TestCollectNothingOrphaned(t *testing.T) {
	tr := newTree(t)
	mustCreate(t, tr, "/a")
	mustCreate(t, tr, "/a/b")
	_, err := tr.CreateSymlink(context.Background(), "/a", "/link")
	require.NoError(t, err)

	stats, err := NewCollector(tr, Config{}).RunNow(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 4, stats.ExistingNodes)
	assert.EqualValues(t, 2, stats.ExistingEntries)
	assert.EqualValues(t, 4, stats.ReachableCount)
	assert.Zero(t, stats.OrphanedNodes)
	assert.Zero(t, stats.OrphanedEntries)
	assert.Zero(t, stats.DeletedCount)
}

func TestCollectReplacedChild(t *testing.T) {
	ctx := context.Background()
	tr := newTree(t)
	first := mustCreate(t, tr, "/a")
	second := mustCreate(t, tr, "/a") // replaces the entry, orphaning first

	stats, err := NewCollector(tr, Config{}).RunNow(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.OrphanedNodes)
	assert.EqualValues(t, 1, stats.DeletedCount)

	ids, err := tr.NodeIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []tree.NodeID{tree.Root, second}, ids)
	assert.NotContains(t, ids, first)
}

func TestCollectLiteralChildOfSymlink(t *testing.T) {
	ctx := context.Background()
	tr := newTree(t)
	mustCreate(t, tr, "/real")
	_, err := tr.CreateSymlink(ctx, "/real", "/link")
	require.NoError(t, err)
	mustCreate(t, tr, "/link/hidden", tree.WithoutParentResolution())

	stats, err := NewCollector(tr, Config{BatchSize: 1}).RunNow(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.OrphanedNodes)
	assert.EqualValues(t, 1, stats.OrphanedEntries)
	assert.EqualValues(t, 2, stats.DeletedCount)

	paths, err := tr.AdjacencyPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, paths)
}

func TestCollectDryRun(t *testing.T) {
	ctx := context.Background()
	tr := newTree(t)
	mustCreate(t, tr, "/a")
	mustCreate(t, tr, "/a")

	stats, err := NewCollector(tr, Config{DryRun: true}).RunNow(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.OrphanedNodes)
	assert.Zero(t, stats.DeletedCount)

	ids, err := tr.NodeIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestCollectCancelled(t *testing.T) {
	tr := newTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCollector(tr, Config{}).RunNow(ctx)
	assert.Error(t, err)
}

func TestBackgroundCollector(t *testing.T) {
	ctx := context.Background()
	tr := newTree(t)
	mustCreate(t, tr, "/a")
	mustCreate(t, tr, "/a")

	c := NewCollector(tr, Config{Enabled: true, Interval: 10 * time.Millisecond})
	c.Start()
	c.Start()

	require.Eventually(t, func() bool {
		ids, err := tr.NodeIDs(ctx)
		return err == nil && len(ids) == 2
	}, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, c.Stop(stopCtx))
	require.NoError(t, c.Stop(stopCtx))
}

func TestStopWithoutStart(t *testing.T) {
	c := NewCollector(newTree(t), Config{Enabled: true})
	assert.NoError(t, c.Stop(context.Background()))
}

func TestStatsSummary(t *testing.T) {
	s := &Stats{StartTime: time.Now(), EndTime: time.Now(), OrphanedNodes: 3, DeletedCount: 3}
	assert.Contains(t, s.Summary(), "orphaned_nodes=3")
	assert.Contains(t, s.Summary(), "deleted=3")
}

package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordListingAndPurge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		a := mustCreate(t, tr, "/a")
		b := mustCreate(t, tr, "/a/b")

		// Unlink /a from the root as an interrupted delete would.
		_, err := tr.kv.HDel(ctx, tr.treeKey("/"), "a")
		require.NoError(t, err)

		ids, err := tr.NodeIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []NodeID{Root, a, b}, ids)

		paths, err := tr.AdjacencyPaths(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/a"}, paths)

		removed, err := tr.PurgeRecords(ctx, []NodeID{a, b}, []string{"/a"})
		require.NoError(t, err)
		assert.EqualValues(t, 3, removed)
		assertStats(t, tr, 0, 1)
	})
}

func TestPurgeRecordsRefusesRoot(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		_, err := tr.PurgeRecords(context.Background(), []NodeID{Root}, nil)
		assertCode(t, err, ErrInvalidPath)
		assertStats(t, tr, 0, 1)
	})
}

func TestPurgeRecordsEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		removed, err := tr.PurgeRecords(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

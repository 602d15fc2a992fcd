package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteSimple(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		mustCreate(t, tr, "/foo")
		mustCreate(t, tr, "/foo/bar")
		mustCreate(t, tr, "/foo/bar/bob")
		mustCreate(t, tr, "/foo/bar/alice")
		assertStats(t, tr, 3, 5)

		require.NoError(t, tr.DeleteNode(ctx, "/foo/bar"))

		// /foo lost its only child, so its adjacency entry is gone too.
		assertStats(t, tr, 1, 2)

		children, err := tr.GetChildren(ctx, "/foo")
		require.NoError(t, err)
		assert.Empty(t, children)
	})
}

func TestDeleteLeaf(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		mustCreate(t, tr, "/foo")
		assertStats(t, tr, 1, 2)

		require.NoError(t, tr.DeleteNode(context.Background(), "/foo"))

		assertStats(t, tr, 0, 1)
	})
}

func TestDeleteDeep(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		const n = 100
		path := ""
		for i := 0; i < n; i++ {
			path += "/foo"
			mustCreate(t, tr, path)
		}
		assertStats(t, tr, n, n+1)

		require.NoError(t, tr.DeleteNode(context.Background(), "/foo"))

		assertStats(t, tr, 0, 1)
	})
}

func TestDeleteInsideSymlink(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		mustCreate(t, tr, "/foo")
		mustCreate(t, tr, "/foo/bar")
		mustCreate(t, tr, "/foo/bar/bob")
		mustLink(t, tr, "/foo/bar", "/me")
		assertStats(t, tr, 3, 5)

		require.NoError(t, tr.DeleteNode(ctx, "/me/bob"))

		assertStats(t, tr, 2, 4)
		_, err := tr.GetNodeAtPath(ctx, "/foo/bar/bob")
		assertCode(t, err, ErrBrokenPath)
	})
}

func TestDeleteSymlinkKeepsTarget(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		mustCreate(t, tr, "/foo")
		bar := mustCreate(t, tr, "/foo/bar")
		mustLink(t, tr, "/foo/bar", "/me")

		require.NoError(t, tr.DeleteNode(ctx, "/me"))

		_, err := tr.GetNodeAtPath(ctx, "/me")
		assertCode(t, err, ErrBrokenPath)
		got, err := tr.GetNodeAtPath(ctx, "/foo/bar")
		require.NoError(t, err)
		assert.Equal(t, bar, got)
	})
}

func TestDeleteRejects(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()

		assertCode(t, tr.DeleteNode(ctx, "/"), ErrInvalidPath)
		assertCode(t, tr.DeleteNode(ctx, "/nope"), ErrBrokenPath)
		assertStats(t, tr, 0, 1)
	})
}

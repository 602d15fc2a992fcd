package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChildNodeDefaultsName(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		id := mustCreate(t, tr, "/foo")

		info, err := tr.GetNodeInfo(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, Attributes{"name": "foo"}, info)
	})
}

func TestCreateChildNodeMissingParent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		_, err := tr.CreateChildNode(context.Background(), "/nope/x", nil)
		assertCode(t, err, ErrBrokenPath)
		assertStats(t, tr, 0, 1)
	})
}

func TestCreateChildNodeRoot(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		_, err := tr.CreateChildNode(context.Background(), "/", nil)
		assertCode(t, err, ErrInvalidPath)
	})
}

func TestCreateChildNodeDuplicateReplaces(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		first := mustCreate(t, tr, "/foo")
		second := mustCreate(t, tr, "/foo")
		assert.NotEqual(t, first, second)

		children, err := tr.GetChildren(ctx, "/")
		require.NoError(t, err)
		assert.Equal(t, map[string]NodeID{"foo": second}, children)

		// The first record is orphaned, not removed.
		assertStats(t, tr, 1, 3)
	})
}

func TestCreateChildNodeExclusive(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		first := mustCreate(t, tr, "/foo")

		_, err := tr.CreateChildNode(ctx, "/foo", nil, WithExclusive())
		assertCode(t, err, ErrAlreadyExists)

		got, err := tr.GetNodeAtPath(ctx, "/foo")
		require.NoError(t, err)
		assert.Equal(t, first, got)
		assertStats(t, tr, 1, 2)

		id, err := tr.CreateChildNode(ctx, "/bar", nil, WithExclusive())
		require.NoError(t, err)
		got, err = tr.GetNodeAtPath(ctx, "/bar")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})
}

func TestCreateInsideSymlink(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		mustCreate(t, tr, "/foo")
		mustCreate(t, tr, "/foo/bar")
		mustLink(t, tr, "/foo/bar", "/me")

		children, err := tr.GetChildren(ctx, "/foo/bar")
		require.NoError(t, err)
		assert.Empty(t, children)

		bob := mustCreate(t, tr, "/me/bob")

		children, err = tr.GetChildren(ctx, "/foo/bar")
		require.NoError(t, err)
		assert.Equal(t, map[string]NodeID{"bob": bob}, children)
	})
}

func TestCreateWithoutParentResolution(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		mustCreate(t, tr, "/foo")
		mustLink(t, tr, "/foo", "/me")

		id, err := tr.CreateChildNode(ctx, "/me/x", nil, WithoutParentResolution())
		require.NoError(t, err)

		children, err := tr.GetChildren(ctx, "/me")
		require.NoError(t, err)
		assert.Equal(t, map[string]NodeID{"x": id}, children)

		children, err = tr.GetChildren(ctx, "/foo")
		require.NoError(t, err)
		assert.Empty(t, children)
	})
}

func TestGetChildren(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()

		children, err := tr.GetChildren(ctx, "/")
		require.NoError(t, err)
		assert.Empty(t, children)

		mustCreate(t, tr, "/foo")
		expected := map[string]NodeID{
			"bar":   mustCreate(t, tr, "/foo/bar"),
			"bob":   mustCreate(t, tr, "/foo/bob"),
			"alice": mustCreate(t, tr, "/foo/alice"),
		}

		children, err = tr.GetChildren(ctx, "/foo")
		require.NoError(t, err)
		assert.Equal(t, expected, children)

		children, err = tr.GetChildren(ctx, "/")
		require.NoError(t, err)
		assert.Contains(t, children, "foo")

		children, err = tr.GetChildren(ctx, "/nobody")
		require.NoError(t, err)
		assert.Empty(t, children)
	})
}

func TestGetChildrenOfSymlinkIsLiteral(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		mustCreate(t, tr, "/foo")
		expected := map[string]NodeID{
			"alice": mustCreate(t, tr, "/foo/alice"),
			"bob":   mustCreate(t, tr, "/foo/bob"),
		}
		mustLink(t, tr, "/foo", "/bar")

		children, err := tr.GetChildren(ctx, "/foo")
		require.NoError(t, err)
		assert.Equal(t, expected, children)

		children, err = tr.GetChildren(ctx, "/bar")
		require.NoError(t, err)
		assert.Empty(t, children)

		entries, err := tr.ReadDir(ctx, "/bar")
		require.NoError(t, err)
		assert.Equal(t, []DirEntry{
			{Name: "alice", ID: expected["alice"]},
			{Name: "bob", ID: expected["bob"]},
		}, entries)
	})
}

func TestTargetAttributeAloneIsNotALink(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		mustCreate(t, tr, "/real")
		id, err := tr.CreateChildNode(ctx, "/plain", Attributes{"name": "plain", "target": "/real"})
		require.NoError(t, err)
		childID := mustCreate(t, tr, "/plain/child")

		isLink, err := tr.IsSymlink(ctx, "/plain")
		require.NoError(t, err)
		assert.False(t, isLink)
		_, ok, err := tr.GetTarget(ctx, "/plain")
		require.NoError(t, err)
		assert.False(t, ok)

		// Resolution treats it as a plain node too.
		got, err := tr.GetNodeAtPath(ctx, "/plain/child")
		require.NoError(t, err)
		assert.Equal(t, childID, got)
		got, err = tr.GetNodeAtPath(ctx, "/plain")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})
}

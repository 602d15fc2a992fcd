package tree

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func buildWalkTree(t *testing.T, tr *Tree) {
	t.Helper()
	mustCreate(t, tr, "/a")
	mustCreate(t, tr, "/a/c")
	mustCreate(t, tr, "/a/b")
	mustCreate(t, tr, "/a/b/d")
	mustLink(t, tr, "/a/b", "/a/l")
}

func TestWalk(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		buildWalkTree(t, tr)

		var visited []string
		err := tr.Walk(context.Background(), "/", func(p string, id NodeID, attrs Attributes) error {
			visited = append(visited, p)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"/", "/a", "/a/b", "/a/b/d", "/a/c", "/a/l"}, visited)
	})
}

func TestWalkSkipDir(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		buildWalkTree(t, tr)

		var visited []string
		err := tr.Walk(context.Background(), "/a", func(p string, id NodeID, attrs Attributes) error {
			visited = append(visited, p)
			if p == "/a/b" {
				return fs.SkipDir
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"/a", "/a/b", "/a/c", "/a/l"}, visited)
	})
}

func TestWalkThroughTerminalSymlink(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		buildWalkTree(t, tr)

		var visited []string
		err := tr.Walk(context.Background(), "/a/l", func(p string, id NodeID, attrs Attributes) error {
			visited = append(visited, p)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"/a/b", "/a/b/d"}, visited)
	})
}

func TestSnapshot(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		ctx := context.Background()
		buildWalkTree(t, tr)

		snap, err := tr.Snapshot(ctx, "/a")
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, "a", snap.Name)
		assert.Equal(t, "/a", snap.Path)

		require.Len(t, snap.Children, 3)
		assert.Equal(t, "b", snap.Children[0].Name)
		assert.Equal(t, "c", snap.Children[1].Name)
		assert.Equal(t, "l", snap.Children[2].Name)
		assert.Equal(t, "/a/b", snap.Children[2].Target)
		require.Len(t, snap.Children[0].Children, 1)
		assert.Equal(t, "/a/b/d", snap.Children[0].Children[0].Path)

		out, err := yaml.Marshal(snap)
		require.NoError(t, err)
		assert.Contains(t, string(out), "target: /a/b")

		var back SnapshotNode
		require.NoError(t, yaml.Unmarshal(out, &back))
		assert.Equal(t, snap.Children[2].ID, back.Children[2].ID)

		root, err := tr.Snapshot(ctx, "/")
		require.NoError(t, err)
		assert.Equal(t, "/", root.Name)
		assert.Equal(t, Root, root.ID)
	})
}

func TestReadDirMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tree) {
		_, err := tr.ReadDir(context.Background(), "/nope")
		assertCode(t, err, ErrBrokenPath)

		entries, err := tr.ReadDir(context.Background(), "/")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

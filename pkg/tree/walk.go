package tree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"
)

// DirEntry is one child in a directory listing.
type DirEntry struct {
	Name string `json:"name" yaml:"name"`
	ID   NodeID `json:"id" yaml:"id"`
}

// ReadDir lists the children of the node at path sorted by name. Unlike
// GetChildren, the path is resolved first and a terminal symlink is
// followed, so listing a link lists its target.
func (t *Tree) ReadDir(ctx context.Context, path string) (entries []DirEntry, err error) {
	defer t.track("ReadDir", time.Now(), &err)

	canonical, _, err := t.resolve(ctx, path, true)
	if err != nil {
		return nil, err
	}
	children, err := t.children(ctx, canonical)
	if err != nil {
		return nil, err
	}
	return sortedEntries(children), nil
}

func sortedEntries(children map[string]NodeID) []DirEntry {
	entries := make([]DirEntry, 0, len(children))
	for name, id := range children {
		entries = append(entries, DirEntry{Name: name, ID: id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// WalkFunc is called for every node visited by Walk with its canonical path.
// Returning fs.SkipDir skips the node's children; any other error stops the
// walk and is returned by Walk.
type WalkFunc func(path string, id NodeID, attrs Attributes) error

// Walk visits the subtree at path depth-first, parents before children and
// siblings in name order. A terminal symlink at path is followed; symlinks
// inside the subtree are reported but not descended into.
func (t *Tree) Walk(ctx context.Context, path string, fn WalkFunc) (err error) {
	defer t.track("Walk", time.Now(), &err)

	canonical, id, err := t.resolve(ctx, path, true)
	if err != nil {
		return err
	}
	err = t.walk(ctx, canonical, id, fn)
	if errors.Is(err, fs.SkipDir) {
		return nil
	}
	return err
}

func (t *Tree) walk(ctx context.Context, canonical string, id NodeID, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	read := t.kv.Pipeline()
	attrsOp := read.HGetAll(t.nodeKey(id))
	childrenOp := read.HGetAll(t.treeKey(canonical))
	if err := read.Exec(ctx); err != nil {
		return fmt.Errorf("walk %s: %w", canonical, err)
	}

	attrs := Attributes(attrsOp.Map)
	if err := fn(canonical, id, attrs); err != nil {
		if errors.Is(err, fs.SkipDir) {
			return nil
		}
		return err
	}
	if _, _, isLink := attrs.Link(); isLink {
		return nil
	}

	children, err := decodeChildren(canonical, childrenOp.Map)
	if err != nil {
		return err
	}
	for _, e := range sortedEntries(children) {
		if err := t.walk(ctx, joinPath(canonical, e.Name), e.ID, fn); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotNode is a serializable view of a subtree.
type SnapshotNode struct {
	Name       string          `json:"name" yaml:"name"`
	Path       string          `json:"path" yaml:"path"`
	ID         NodeID          `json:"id" yaml:"id"`
	Target     string          `json:"target,omitempty" yaml:"target,omitempty"`
	Attributes Attributes      `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Children   []*SnapshotNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Snapshot captures the subtree at path. It reads the backend node by node
// and is not a consistent point-in-time view under concurrent mutation.
func (t *Tree) Snapshot(ctx context.Context, path string) (root *SnapshotNode, err error) {
	defer t.track("Snapshot", time.Now(), &err)

	canonical, id, err := t.resolve(ctx, path, true)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*SnapshotNode)
	err = t.walk(ctx, canonical, id, func(p string, id NodeID, attrs Attributes) error {
		n := &SnapshotNode{Path: p, ID: id, Attributes: attrs}
		if target, _, ok := attrs.Link(); ok {
			n.Target = target
		}

		parent, name, _ := splitParent(p)
		n.Name = name
		if p == canonical {
			if name == "" {
				n.Name = "/"
			}
			root = n
		} else if pn, ok := nodes[parent]; ok {
			pn.Children = append(pn.Children, n)
		}
		nodes[p] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

package tree

import (
	"context"
	"fmt"
	"time"
)

// CreateNode allocates an id and writes attrs as its record. The node is
// not linked anywhere; use CreateChildNode for that.
//
// An empty attrs map writes nothing, since the backend cannot hold an empty
// record: the id is reserved but GetNodeInfo returns an empty map.
func (t *Tree) CreateNode(ctx context.Context, attrs Attributes) (id NodeID, err error) {
	defer t.track("CreateNode", time.Now(), &err)

	id, err = t.Allocate(ctx)
	if err != nil {
		return 0, err
	}
	if err := t.kv.HSet(ctx, t.nodeKey(id), attrs); err != nil {
		return 0, fmt.Errorf("write node %s: %w", id, err)
	}
	return id, nil
}

// CreateNodeWithID writes attrs into the record of an existing id, merging
// with and overwriting any fields already present.
func (t *Tree) CreateNodeWithID(ctx context.Context, id NodeID, attrs Attributes) (err error) {
	defer t.track("CreateNodeWithID", time.Now(), &err)

	if err := t.kv.HSet(ctx, t.nodeKey(id), attrs); err != nil {
		return fmt.Errorf("write node %s: %w", id, err)
	}
	return nil
}

// GetNodeInfo returns the record of id. A missing record yields an empty
// map, not an error; use path resolution to test existence.
func (t *Tree) GetNodeInfo(ctx context.Context, id NodeID) (attrs Attributes, err error) {
	defer t.track("GetNodeInfo", time.Now(), &err)

	m, err := t.kv.HGetAll(ctx, t.nodeKey(id))
	if err != nil {
		return nil, fmt.Errorf("read node %s: %w", id, err)
	}
	return Attributes(m), nil
}

// CloneNode copies the record of id under a freshly allocated id.
func (t *Tree) CloneNode(ctx context.Context, id NodeID) (clone NodeID, err error) {
	defer t.track("CloneNode", time.Now(), &err)

	m, err := t.kv.HGetAll(ctx, t.nodeKey(id))
	if err != nil {
		return 0, fmt.Errorf("read node %s: %w", id, err)
	}
	if len(m) == 0 {
		return 0, newError(ErrBrokenPath, "", "node %s has no record", id)
	}

	clone, err = t.Allocate(ctx)
	if err != nil {
		return 0, err
	}
	if err := t.kv.HSet(ctx, t.nodeKey(clone), m); err != nil {
		return 0, fmt.Errorf("write node %s: %w", clone, err)
	}
	return clone, nil
}

// GetChildren returns the adjacency entry stored at path verbatim. The path
// is taken literally: symlinks are not followed, so a symlink's path only
// has children if they were created with WithoutParentResolution. A leaf and
// a missing path both yield an empty map.
func (t *Tree) GetChildren(ctx context.Context, path string) (children map[string]NodeID, err error) {
	defer t.track("GetChildren", time.Now(), &err)

	p, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	return t.children(ctx, p)
}

func (t *Tree) children(ctx context.Context, canonical string) (map[string]NodeID, error) {
	m, err := t.kv.HGetAll(ctx, t.treeKey(canonical))
	if err != nil {
		return nil, fmt.Errorf("read children of %s: %w", canonical, err)
	}
	return decodeChildren(canonical, m)
}

func decodeChildren(canonical string, m map[string]string) (map[string]NodeID, error) {
	out := make(map[string]NodeID, len(m))
	for name, raw := range m {
		id, err := ParseNodeID(raw)
		if err != nil {
			return nil, fmt.Errorf("adjacency %s child %q: %w", canonical, name, err)
		}
		out[name] = id
	}
	return out, nil
}

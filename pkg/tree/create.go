package tree

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/pkg/kv"
)

type createOptions struct {
	resolveParent bool
	exclusive     bool
}

// CreateOption tunes CreateChildNode and CreateSymlink.
type CreateOption func(*createOptions)

// WithoutParentResolution uses the parent path literally as the adjacency
// key instead of resolving it. The parent's existence is not checked.
func WithoutParentResolution() CreateOption {
	return func(o *createOptions) { o.resolveParent = false }
}

// WithExclusive fails with ErrAlreadyExists instead of replacing an existing
// child of the same name.
func WithExclusive() CreateOption {
	return func(o *createOptions) { o.exclusive = true }
}

// CreateChildNode creates a node at path and returns its id.
//
// The parent is resolved first (following a terminal symlink), so creating
// "/alias/x" where /alias links to /real adds x to /real. attrs defaults to
// {name: leaf} when empty.
//
// Without WithExclusive an existing child of the same name is silently
// replaced. Its node record stays in the backend, unreachable. Adjacency is
// keyed by path, so the new node takes over the old one's children.
func (t *Tree) CreateChildNode(ctx context.Context, path string, attrs Attributes, opts ...CreateOption) (id NodeID, err error) {
	defer t.track("CreateChildNode", time.Now(), &err)
	return t.createChild(ctx, path, attrs, opts)
}

func (t *Tree) createChild(ctx context.Context, path string, attrs Attributes, opts []CreateOption) (NodeID, error) {
	o := createOptions{resolveParent: true}
	for _, opt := range opts {
		opt(&o)
	}

	parent, name, err := splitParent(path)
	if err != nil {
		return 0, err
	}
	if name == "" {
		return 0, newError(ErrInvalidPath, path, "cannot create the root")
	}
	if len(attrs) == 0 {
		attrs = Attributes{AttrName: name}
	}

	if o.resolveParent {
		parent, _, err = t.resolve(ctx, parent, true)
		if err != nil {
			return 0, err
		}
	}

	id, err := t.Allocate(ctx)
	if err != nil {
		return 0, err
	}

	pipe := t.kv.Pipeline()
	pipe.HSet(t.nodeKey(id), attrs)
	var linked *kv.Op
	if o.exclusive {
		linked = pipe.HSetNX(t.treeKey(parent), name, id.String())
	} else {
		pipe.HSet(t.treeKey(parent), map[string]string{name: id.String()})
	}
	if err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("create %s: %w", joinPath(parent, name), err)
	}

	if o.exclusive && !linked.Bool {
		if _, err := t.kv.Del(ctx, t.nodeKey(id)); err != nil {
			logger.Warn("CreateChildNode: failed to drop unlinked node %s: %v", id, err)
		}
		return 0, newError(ErrAlreadyExists, joinPath(parent, name), "entry exists")
	}

	logger.Debug("CreateChildNode: %s -> %s", joinPath(parent, name), id)
	return id, nil
}

// CreateSymlink creates a symlink node at path pointing at target. target is
// resolved without following a terminal symlink, so links to links are
// allowed. The record stores the target path and the id it resolved to.
func (t *Tree) CreateSymlink(ctx context.Context, target, path string, opts ...CreateOption) (id NodeID, err error) {
	defer t.track("CreateSymlink", time.Now(), &err)

	target, err = cleanPath(target)
	if err != nil {
		return 0, err
	}
	_, targetNode, err := t.resolve(ctx, target, false)
	if err != nil {
		return 0, err
	}

	_, name, err := splitParent(path)
	if err != nil {
		return 0, err
	}
	return t.createChild(ctx, path, Attributes{
		AttrName:       name,
		AttrTarget:     target,
		AttrTargetNode: targetNode.String(),
	}, opts)
}

// GetTarget returns the target path stored in the symlink at path. ok is
// false when the node is not a symlink. A terminal symlink is not followed.
func (t *Tree) GetTarget(ctx context.Context, path string) (target string, ok bool, err error) {
	defer t.track("GetTarget", time.Now(), &err)
	return t.target(ctx, path)
}

func (t *Tree) target(ctx context.Context, path string) (string, bool, error) {
	_, id, err := t.resolve(ctx, path, false)
	if err != nil {
		return "", false, err
	}
	m, err := t.kv.HMGet(ctx, t.nodeKey(id), AttrTarget, AttrTargetNode)
	if err != nil {
		return "", false, fmt.Errorf("read node %s: %w", id, err)
	}
	target, _, ok := Attributes(m).Link()
	return target, ok, nil
}

// IsSymlink reports whether the node at path is a symlink.
func (t *Tree) IsSymlink(ctx context.Context, path string) (ok bool, err error) {
	defer t.track("IsSymlink", time.Now(), &err)

	_, ok, err = t.target(ctx, path)
	return ok, err
}

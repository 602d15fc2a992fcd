package tree

import (
	"context"
	"fmt"
	"time"
)

// resolver carries the symlink hop budget across one top-level resolution,
// including the nested resolutions used to re-validate symlink targets.
type resolver struct {
	t    *Tree
	hops int
}

func (t *Tree) resolve(ctx context.Context, path string, followTerminal bool) (string, NodeID, error) {
	r := &resolver{t: t}
	canonical, id, err := r.walk(ctx, path, followTerminal)
	t.metrics.ObserveSymlinkHops(r.hops)
	return canonical, id, err
}

// walk resolves path component by component starting at the root. Every
// symlink met before the last component is substituted by its target; the
// last node is substituted only when followTerminal is set.
func (r *resolver) walk(ctx context.Context, path string, followTerminal bool) (string, NodeID, error) {
	comps, err := splitPath(path)
	if err != nil {
		return "", 0, err
	}

	canonical, id := "/", Root
	for {
		if id != Root && (len(comps) > 0 || followTerminal) {
			attrs, err := r.t.kv.HMGet(ctx, r.t.nodeKey(id), AttrTarget, AttrTargetNode)
			if err != nil {
				return "", 0, fmt.Errorf("read node %s: %w", id, err)
			}
			if target, targetNode, ok := Attributes(attrs).Link(); ok {
				r.hops++
				if r.hops > r.t.maxHops {
					return "", 0, newError(ErrCyclicSymlink, path, "too many levels of symbolic links")
				}
				canonical, id, err = r.follow(ctx, target, targetNode)
				if err != nil {
					return "", 0, err
				}
				continue
			}
		}

		if len(comps) == 0 {
			return canonical, id, nil
		}

		next := comps[0]
		comps = comps[1:]

		raw, found, err := r.t.kv.HGet(ctx, r.t.treeKey(canonical), next)
		if err != nil {
			return "", 0, fmt.Errorf("read children of %s: %w", canonical, err)
		}
		if !found {
			return "", 0, newError(ErrBrokenPath, path, "no such entry %q in %s", next, canonical)
		}
		id, err = ParseNodeID(raw)
		if err != nil {
			return "", 0, fmt.Errorf("adjacency %s child %q: %w", canonical, next, err)
		}
		canonical = joinPath(canonical, next)
	}
}

// follow substitutes a symlink by its target and returns the canonical path
// of targetNode.
//
// The stored target string is not trusted: the target may have been moved
// or replaced since the link was made. The cheap check is that the target's
// parent entry still maps the leaf to targetNode. If it does not (the
// target string itself crosses symlinks, or the tree changed) the string is
// resolved in full and must still reach targetNode.
func (r *resolver) follow(ctx context.Context, target string, targetNode NodeID) (string, NodeID, error) {
	parent, name, err := splitParent(target)
	if err != nil {
		return "", 0, newError(ErrBrokenPath, target, "symlink target is not a valid path")
	}

	if name == "" {
		if targetNode == Root {
			return "/", Root, nil
		}
	} else {
		raw, found, err := r.t.kv.HGet(ctx, r.t.treeKey(parent), name)
		if err != nil {
			return "", 0, fmt.Errorf("read children of %s: %w", parent, err)
		}
		if found && raw == targetNode.String() {
			return joinPath(parent, name), targetNode, nil
		}
	}

	canonical, id, err := r.walk(ctx, target, false)
	if err == nil && id == targetNode {
		return canonical, id, nil
	}
	if IsCode(err, ErrCyclicSymlink) {
		return "", 0, err
	}
	if err != nil && !IsCode(err, ErrBrokenPath) {
		return "", 0, err
	}
	return "", 0, newError(ErrBrokenPath, target, "stale symlink, target node %s no longer at", targetNode)
}

// RealNode resolves path to its canonical form and node id. Symlinks along
// the way are followed; a symlink in last position is followed only when
// followTerminal is set.
func (t *Tree) RealNode(ctx context.Context, path string, followTerminal bool) (canonical string, id NodeID, err error) {
	defer t.track("RealNode", time.Now(), &err)
	return t.resolve(ctx, path, followTerminal)
}

// GetNodeAtPath returns the id reached by path without following a terminal
// symlink.
func (t *Tree) GetNodeAtPath(ctx context.Context, path string) (id NodeID, err error) {
	defer t.track("GetNodeAtPath", time.Now(), &err)
	_, id, err = t.resolve(ctx, path, false)
	return id, err
}

// GetRealPath returns the canonical form of path without following a
// terminal symlink.
func (t *Tree) GetRealPath(ctx context.Context, path string) (canonical string, err error) {
	defer t.track("GetRealPath", time.Now(), &err)
	canonical, _, err = t.resolve(ctx, path, false)
	return canonical, err
}

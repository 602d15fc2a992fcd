package tree

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/pkg/kv"
)

// DeleteNode removes the node at path together with its whole subtree.
//
// path is resolved without following a terminal symlink, so deleting a
// symlink removes the link, not its target. Each level of the subtree is
// unlinked in one batch and the node records are removed afterwards, level
// by level. An interrupted delete leaves unreachable records behind, never
// reachable entries without records.
func (t *Tree) DeleteNode(ctx context.Context, path string) (err error) {
	defer t.track("DeleteNode", time.Now(), &err)

	canonical, _, err := t.resolve(ctx, path, false)
	if err != nil {
		return err
	}
	if canonical == "/" {
		return newError(ErrInvalidPath, path, "cannot delete the root")
	}

	opID := uuid.NewString()
	logger.Debug("DeleteNode[%s]: %s (canonical %s)", opID, path, canonical)

	if err := t.deleteLevel(ctx, opID, canonical, 0, false); err != nil {
		logger.Warn("DeleteNode[%s]: %s partially deleted: %v", opID, canonical, err)
		return err
	}
	return nil
}

// deleteLevel unlinks the node at canonical and recurses into its children.
// At the top level the id comes from the parent entry, which is removed in
// the same batch; below it the id is already known from the parent's
// adjacency entry, which the previous level deleted wholesale.
func (t *Tree) deleteLevel(ctx context.Context, opID, canonical string, given NodeID, known bool) error {
	parent, name, err := splitParent(canonical)
	if err != nil {
		return err
	}

	pipe := t.kv.Pipeline()
	var idOp *kv.Op
	if !known {
		idOp = pipe.HGet(t.treeKey(parent), name)
	}
	childrenOp := pipe.HGetAll(t.treeKey(canonical))
	pipe.Del(t.treeKey(canonical))
	if !known {
		pipe.HDel(t.treeKey(parent), name)
	}
	if err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", canonical, err)
	}

	id := given
	if !known {
		if !idOp.Found {
			return newError(ErrBrokenPath, canonical, "no such entry")
		}
		if id, err = ParseNodeID(idOp.Str); err != nil {
			return fmt.Errorf("delete %s: %w", canonical, err)
		}
	}

	if _, err := t.kv.Del(ctx, t.nodeKey(id)); err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}

	children, err := decodeChildren(canonical, childrenOp.Map)
	if err != nil {
		return err
	}
	logger.Debug("DeleteNode[%s]: removed %s id=%s children=%d", opID, canonical, id, len(children))

	names := make([]string, 0, len(children))
	for n := range children {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if err := t.deleteLevel(ctx, opID, joinPath(canonical, n), children[n], true); err != nil {
			return err
		}
	}
	return nil
}

package tree

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittotree/internal/logger"
)

// CopyPath copies the subtree at src to dst. Every copied node gets a new
// id; records are cloned verbatim, so the top node keeps its original name
// attribute.
//
// Symlinks along the src path are followed. A symlink as src, or anywhere
// inside the subtree, is copied as a symlink with the same target. The
// destination parent is resolved like in CreateChildNode. Copying onto an
// existing name or into src's own subtree is rejected.
func (t *Tree) CopyPath(ctx context.Context, src, dst string) (err error) {
	defer t.track("CopyPath", time.Now(), &err)

	dstParent, dstName, err := splitParent(dst)
	if err != nil {
		return err
	}
	if dstName == "" {
		return newError(ErrInvalidPath, dst, "cannot replace the root")
	}

	srcPath, srcID, err := t.resolve(ctx, src, false)
	if err != nil {
		return err
	}
	dstParent, _, err = t.resolve(ctx, dstParent, true)
	if err != nil {
		return err
	}

	dstPath := joinPath(dstParent, dstName)
	if isWithin(dstPath, srcPath) {
		return newError(ErrInvalidPath, dst, "cannot copy %s into itself", srcPath)
	}

	_, taken, err := t.kv.HGet(ctx, t.treeKey(dstParent), dstName)
	if err != nil {
		return fmt.Errorf("copy %s: %w", srcPath, err)
	}
	if taken {
		return newError(ErrAlreadyExists, dst, "entry exists")
	}

	opID := uuid.NewString()
	logger.Debug("CopyPath[%s]: %s -> %s", opID, srcPath, dstPath)

	copied, err := t.copyNode(ctx, srcPath, srcID, dstParent, dstName)
	if err != nil {
		logger.Warn("CopyPath[%s]: %s -> %s stopped after %d nodes: %v", opID, srcPath, dstPath, copied, err)
		return err
	}
	logger.Debug("CopyPath[%s]: copied %d nodes", opID, copied)
	return nil
}

// copyNode clones one node, links the clone and recurses. It returns the
// number of nodes copied so far.
func (t *Tree) copyNode(ctx context.Context, srcPath string, srcID NodeID, dstParent, dstName string) (int, error) {
	read := t.kv.Pipeline()
	attrsOp := read.HGetAll(t.nodeKey(srcID))
	childrenOp := read.HGetAll(t.treeKey(srcPath))
	if err := read.Exec(ctx); err != nil {
		return 0, fmt.Errorf("copy %s: %w", srcPath, err)
	}

	newID, err := t.Allocate(ctx)
	if err != nil {
		return 0, err
	}

	write := t.kv.Pipeline()
	write.HSet(t.nodeKey(newID), attrsOp.Map)
	write.HSet(t.treeKey(dstParent), map[string]string{dstName: newID.String()})
	if err := write.Exec(ctx); err != nil {
		return 0, fmt.Errorf("copy %s: %w", srcPath, err)
	}

	children, err := decodeChildren(srcPath, childrenOp.Map)
	if err != nil {
		return 1, err
	}
	names := make([]string, 0, len(children))
	for n := range children {
		names = append(names, n)
	}
	sort.Strings(names)

	copied := 1
	dstPath := joinPath(dstParent, dstName)
	for _, n := range names {
		c, err := t.copyNode(ctx, joinPath(srcPath, n), children[n], dstPath, n)
		copied += c
		if err != nil {
			return copied, err
		}
	}
	return copied, nil
}

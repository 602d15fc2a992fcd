package tree

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/pkg/kv"
)

// MoveNode relinks the node at src under dst, keeping its id.
//
// Both paths are nominal positions: their parents are used literally, not
// resolved through symlinks. A destination parent that is itself a symlink
// is rejected with ErrInvalidPath. The adjacency entries of the moved
// subtree are renamed along with it. Symlinks elsewhere that pointed into the subtree
// keep their old target string and report ErrBrokenPath when followed.
//
// The move is a read batch followed by a write batch. A concurrent mutation
// of the same subtree between the two can leave a mixed state; the write
// batch is logged with an operation id when it fails.
func (t *Tree) MoveNode(ctx context.Context, src, dst string) (err error) {
	defer t.track("MoveNode", time.Now(), &err)

	srcParent, srcName, err := splitParent(src)
	if err != nil {
		return err
	}
	dstParent, dstName, err := splitParent(dst)
	if err != nil {
		return err
	}
	if srcName == "" {
		return newError(ErrInvalidPath, src, "cannot move the root")
	}
	if dstName == "" {
		return newError(ErrInvalidPath, dst, "cannot replace the root")
	}

	srcPath := joinPath(srcParent, srcName)
	dstPath := joinPath(dstParent, dstName)
	if srcPath == dstPath {
		return nil
	}
	if isWithin(dstPath, srcPath) {
		return newError(ErrInvalidPath, dst, "cannot move %s into its own subtree", srcPath)
	}

	opID := uuid.NewString()

	// Read batch: the moved id, the destination slot, whether the
	// destination parent exists and whether the node has children.
	read := t.kv.Pipeline()
	idOp := read.HGet(t.treeKey(srcParent), srcName)
	destOp := read.HGet(t.treeKey(dstParent), dstName)
	var parentOp *kv.Op
	if dstParent != "/" {
		grand, leaf, _ := splitParent(dstParent)
		parentOp = read.HGet(t.treeKey(grand), leaf)
	}
	ownOp := read.Exists(t.treeKey(srcPath))
	if err := read.Exec(ctx); err != nil {
		return fmt.Errorf("move %s: %w", srcPath, err)
	}

	if !idOp.Found {
		return newError(ErrBrokenPath, src, "no such entry")
	}
	if destOp.Found {
		return newError(ErrAlreadyExists, dst, "entry exists")
	}
	if parentOp != nil {
		if !parentOp.Found {
			return newError(ErrBrokenPath, dst, "destination parent %s does not exist", dstParent)
		}
		// Entries written under a symlink's literal path are never reached
		// by resolution, so the moved node would vanish.
		isLink, lerr := t.isLinkRecord(ctx, parentOp.Str)
		if lerr != nil {
			return fmt.Errorf("move %s: %w", srcPath, lerr)
		}
		if isLink {
			return newError(ErrInvalidPath, dst, "destination parent %s is a symlink", dstParent)
		}
	}

	var descendants []string
	if ownOp.Bool {
		descendants, err = t.kv.Keys(ctx, t.treeKey(srcPath)+"/")
		if err != nil {
			return fmt.Errorf("move %s: list subtree: %w", srcPath, err)
		}
	}

	write := t.kv.Pipeline()
	write.HDel(t.treeKey(srcParent), srcName)
	write.HSet(t.treeKey(dstParent), map[string]string{dstName: idOp.Str})
	if ownOp.Bool {
		write.Rename(t.treeKey(srcPath), t.treeKey(dstPath))
		oldPrefix := t.treeKey(srcPath)
		for _, key := range descendants {
			write.Rename(key, t.treeKey(dstPath)+strings.TrimPrefix(key, oldPrefix))
		}
	}

	logger.Debug("MoveNode[%s]: %s -> %s id=%s subtree_entries=%d", opID, srcPath, dstPath, idOp.Str, len(descendants))
	if err := write.Exec(ctx); err != nil {
		logger.Warn("MoveNode[%s]: write batch failed, %s -> %s may be partially applied: %v", opID, srcPath, dstPath, err)
		return fmt.Errorf("move %s to %s: %w", srcPath, dstPath, err)
	}
	return nil
}

// isLinkRecord reports whether the node whose id is stored as raw is a
// symlink.
func (t *Tree) isLinkRecord(ctx context.Context, raw string) (bool, error) {
	id, err := ParseNodeID(raw)
	if err != nil {
		return false, err
	}
	m, err := t.kv.HMGet(ctx, t.nodeKey(id), AttrTarget, AttrTargetNode)
	if err != nil {
		return false, fmt.Errorf("read node %s: %w", id, err)
	}
	_, _, ok := Attributes(m).Link()
	return ok, nil
}

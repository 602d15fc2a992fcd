package tree

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marmos91/dittotree/internal/logger"
)

// NodeIDs lists the ids of every node record in the backend, reachable or
// not. Keys that do not parse as ids are skipped.
func (t *Tree) NodeIDs(ctx context.Context) ([]NodeID, error) {
	prefix := t.keyPrefix + nodePrefix
	keys, err := t.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list node records: %w", err)
	}

	ids := make([]NodeID, 0, len(keys))
	for _, k := range keys {
		id, err := ParseNodeID(strings.TrimPrefix(k, prefix))
		if err != nil {
			logger.Warn("Skipping foreign key %s: %v", k, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AdjacencyPaths lists the canonical paths of every adjacency entry in the
// backend, reachable or not.
func (t *Tree) AdjacencyPaths(ctx context.Context) ([]string, error) {
	prefix := t.keyPrefix + treePrefix
	keys, err := t.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list adjacency entries: %w", err)
	}

	paths := make([]string, len(keys))
	for i, k := range keys {
		paths[i] = strings.TrimPrefix(k, prefix)
	}
	return paths, nil
}

// PurgeRecords deletes node records and adjacency entries directly, in one
// batch, without touching any parent entry. It is meant for records already
// known to be unreachable; purging a live record breaks the tree. The root
// record is never purged. Returns the number of keys removed.
func (t *Tree) PurgeRecords(ctx context.Context, ids []NodeID, paths []string) (removed int64, err error) {
	defer t.track("PurgeRecords", time.Now(), &err)

	keys := make([]string, 0, len(ids)+len(paths))
	for _, id := range ids {
		if id == Root {
			return 0, newError(ErrInvalidPath, "/", "refusing to purge the root record")
		}
		keys = append(keys, t.nodeKey(id))
	}
	for _, p := range paths {
		keys = append(keys, t.treeKey(p))
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err = t.kv.Del(ctx, keys...)
	if err != nil {
		return 0, fmt.Errorf("purge %d records: %w", len(keys), err)
	}
	return removed, nil
}

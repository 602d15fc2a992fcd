// Package tree implements a hierarchical namespace stored in a flat
// key-value backend.
//
// Callers address nodes by slash-separated paths. The tree maps paths to
// stable node ids, keeps parent/child adjacency, follows symbolic links
// transparently during traversal, and offers structural mutations (create,
// move, delete, copy).
//
// Backend layout:
//
//	NODE_COUNTER            decimal int64, source of node ids
//	NODE:<id>               hash of node attributes
//	TREE:<canonical-path>   hash of child name -> child id
//
// An adjacency entry exists only while its node has children: an empty
// hash cannot be stored, so "no children" and "no entry" read the same.
//
// Consistency:
// The tree keeps no in-process state and takes no locks. Each backend batch
// is applied as a unit, but operations spanning several batches (move,
// delete, copy) are not isolated from concurrent callers and can leave
// partial results if interrupted. Those operations log an operation id with
// every step so such states can be traced.
package tree

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marmos91/dittotree/internal/logger"
	"github.com/marmos91/dittotree/pkg/kv"
	"github.com/marmos91/dittotree/pkg/metrics"
)

const (
	// DefaultCounterKey is the key holding the id counter.
	DefaultCounterKey = "NODE_COUNTER"

	// DefaultMaxSymlinkHops bounds symlink substitutions per resolution.
	DefaultMaxSymlinkHops = 40

	nodePrefix = "NODE:"
	treePrefix = "TREE:"
)

// Config controls key naming and traversal limits.
type Config struct {
	// KeyPrefix is prepended to every key, allowing several trees to share
	// one backend. Empty by default.
	KeyPrefix string

	// CounterKey overrides DefaultCounterKey (the prefix still applies).
	CounterKey string

	// MaxSymlinkHops overrides DefaultMaxSymlinkHops.
	MaxSymlinkHops int

	// Metrics receives per-operation observations. Nil disables them.
	Metrics metrics.TreeMetrics
}

// Tree is a namespace bound to a backend. It is safe for concurrent use.
type Tree struct {
	kv         *kv.Client
	keyPrefix  string
	counterKey string
	maxHops    int
	metrics    metrics.TreeMetrics
}

// New binds a tree to store. The tree does not own the store.
func New(store kv.Store, cfg Config) *Tree {
	counter := cfg.CounterKey
	if counter == "" {
		counter = DefaultCounterKey
	}
	hops := cfg.MaxSymlinkHops
	if hops <= 0 {
		hops = DefaultMaxSymlinkHops
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoopTreeMetrics()
	}

	return &Tree{
		kv:         kv.NewClient(store),
		keyPrefix:  cfg.KeyPrefix,
		counterKey: cfg.KeyPrefix + counter,
		maxHops:    hops,
		metrics:    m,
	}
}

func (t *Tree) nodeKey(id NodeID) string {
	return t.keyPrefix + nodePrefix + id.String()
}

func (t *Tree) treeKey(path string) string {
	return t.keyPrefix + treePrefix + path
}

// track records the outcome of a public operation. Use as
// defer t.track("Op", time.Now(), &err).
func (t *Tree) track(op string, start time.Time, errp *error) {
	t.metrics.RecordOperation(op, time.Since(start), *errp)
}

// Init creates the id counter and the root record if they do not exist.
// It is safe to call on an already initialized backend.
func (t *Tree) Init(ctx context.Context) (err error) {
	defer t.track("Init", time.Now(), &err)

	fresh, err := t.kv.SetNX(ctx, t.counterKey, strconv.FormatInt(counterSeed, 10))
	if err != nil {
		return fmt.Errorf("init counter: %w", err)
	}

	if fresh {
		// The first allocation is reserved for the root.
		id, err := t.Allocate(ctx)
		if err != nil {
			return err
		}
		if id != Root {
			logger.Warn("Init: counter advanced concurrently, id %s will never be used", id)
		}
	} else {
		exists, err := t.kv.Exists(ctx, t.nodeKey(Root))
		if err != nil {
			return fmt.Errorf("init root: %w", err)
		}
		if exists {
			logger.Debug("Init: tree already initialized (prefix=%q)", t.keyPrefix)
			return nil
		}
	}

	if err := t.kv.HSet(ctx, t.nodeKey(Root), Attributes{AttrName: "root"}); err != nil {
		return fmt.Errorf("init root: %w", err)
	}
	logger.Info("Initialized tree (prefix=%q)", t.keyPrefix)
	return nil
}

// Stats counts backend records.
type Stats struct {
	// Nodes is the number of node records, root included.
	Nodes int `json:"nodes" yaml:"nodes"`

	// Directories is the number of adjacency entries, i.e. nodes that
	// currently have at least one child.
	Directories int `json:"directories" yaml:"directories"`
}

// Stats scans the backend for node and adjacency records.
func (t *Tree) Stats(ctx context.Context) (Stats, error) {
	nodes, err := t.kv.Keys(ctx, t.keyPrefix+nodePrefix)
	if err != nil {
		return Stats{}, fmt.Errorf("count nodes: %w", err)
	}
	dirs, err := t.kv.Keys(ctx, t.keyPrefix+treePrefix)
	if err != nil {
		return Stats{}, fmt.Errorf("count adjacency entries: %w", err)
	}
	return Stats{Nodes: len(nodes), Directories: len(dirs)}, nil
}

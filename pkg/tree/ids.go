package tree

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// NodeID identifies a node. Ids are allocated from a shared counter and are
// never reused.
type NodeID int64

// Root is the id of the node at "/". The counter starts at math.MinInt64, so
// the first allocation returns Root.
const Root NodeID = math.MinInt64 + 1

// counterSeed is the initial counter value.
const counterSeed = math.MinInt64

func (id NodeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseNodeID parses the decimal form stored in the backend.
func ParseNodeID(s string) (NodeID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	return NodeID(n), nil
}

// Reserved attribute names.
const (
	AttrName       = "name"
	AttrTarget     = "target"
	AttrTargetNode = "target_node"
)

// Attributes is the free-form field map stored in a node record.
type Attributes map[string]string

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Link returns the symlink fields. A node is a symlink only when both are
// present and target_node parses.
func (a Attributes) Link() (target string, node NodeID, ok bool) {
	target, hasTarget := a[AttrTarget]
	raw, hasNode := a[AttrTargetNode]
	if !hasTarget || !hasNode {
		return "", 0, false
	}
	node, err := ParseNodeID(raw)
	if err != nil {
		return "", 0, false
	}
	return target, node, true
}

// Allocate reserves a fresh node id by incrementing the shared counter.
// Backend failures are returned as-is; there is no local retry.
func (t *Tree) Allocate(ctx context.Context) (NodeID, error) {
	n, err := t.kv.Incr(ctx, t.counterKey)
	if err != nil {
		return 0, fmt.Errorf("allocate node id: %w", err)
	}
	return NodeID(n), nil
}

package kv

import (
	"context"
)

// Client exposes the typed command API on top of a Store. It is safe for
// concurrent use as long as the underlying Store is.
type Client struct {
	store Store
}

// NewClient wraps store.
func NewClient(store Store) *Client {
	return &Client{store: store}
}

// Store returns the wrapped backend.
func (c *Client) Store() Store {
	return c.store
}

func (c *Client) do(ctx context.Context, op *Op) (*Op, error) {
	if err := c.store.Exec(ctx, []*Op{op}); err != nil {
		return op, err
	}
	return op, nil
}

// Get returns the string stored at key.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	op, err := c.do(ctx, &Op{Kind: OpGet, Key: key})
	return op.Str, op.Found, err
}

// Set stores a string value, replacing whatever key held.
func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.do(ctx, &Op{Kind: OpSet, Key: key, Value: value})
	return err
}

// SetNX stores value only if key does not exist. It reports whether it wrote.
func (c *Client) SetNX(ctx context.Context, key, value string) (bool, error) {
	op, err := c.do(ctx, &Op{Kind: OpSetNX, Key: key, Value: value})
	return op.Bool, err
}

// Incr atomically increments the integer at key (missing counts as 0) and
// returns the new value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	op, err := c.do(ctx, &Op{Kind: OpIncr, Key: key})
	return op.Int, err
}

// HGet returns one hash field.
func (c *Client) HGet(ctx context.Context, key, field string) (string, bool, error) {
	op, err := c.do(ctx, &Op{Kind: OpHGet, Key: key, Field: field})
	return op.Str, op.Found, err
}

// HMGet returns the requested fields that exist.
func (c *Client) HMGet(ctx context.Context, key string, fields ...string) (map[string]string, error) {
	op, err := c.do(ctx, &Op{Kind: OpHMGet, Key: key, Fields: fields})
	return op.Map, err
}

// HGetAll returns the whole hash; a missing key yields an empty map.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	op, err := c.do(ctx, &Op{Kind: OpHGetAll, Key: key})
	return op.Map, err
}

// HSet writes fields into the hash at key. An empty map is a no-op.
func (c *Client) HSet(ctx context.Context, key string, values map[string]string) error {
	_, err := c.do(ctx, &Op{Kind: OpHSet, Key: key, Values: values})
	return err
}

// HSetNX writes field only if it is absent and reports whether it wrote.
func (c *Client) HSetNX(ctx context.Context, key, field, value string) (bool, error) {
	op, err := c.do(ctx, &Op{Kind: OpHSetNX, Key: key, Field: field, Value: value})
	return op.Bool, err
}

// HDel removes fields and returns how many existed.
func (c *Client) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	op, err := c.do(ctx, &Op{Kind: OpHDel, Key: key, Fields: fields})
	return op.Int, err
}

// Del removes keys and returns how many existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	op, err := c.do(ctx, &Op{Kind: OpDel, Keys: keys})
	return op.Int, err
}

// Exists reports whether key holds any value.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	op, err := c.do(ctx, &Op{Kind: OpExists, Key: key})
	return op.Bool, err
}

// Rename moves the value at src to dst, overwriting dst.
func (c *Client) Rename(ctx context.Context, src, dst string) error {
	_, err := c.do(ctx, &Op{Kind: OpRename, Key: src, Dst: dst})
	return err
}

// Keys lists keys starting with prefix.
func (c *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	return c.store.Keys(ctx, prefix)
}

// Pipeline starts a new batch.
func (c *Client) Pipeline() *Pipeline {
	return &Pipeline{store: c.store}
}

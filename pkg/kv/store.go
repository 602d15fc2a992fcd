// Package kv defines the key-value backend DittoTree persists its namespace
// in.
//
// The contract is deliberately Redis-shaped: string keys, hash-valued keys
// with field access, an atomic counter, key rename, prefix enumeration and
// batched execution. Implementations live in the memory, badger and redis
// sub-packages; all of them pass the conformance suite in kv/testing.
//
// Backends only need to implement Store. The typed command API callers use
// (Get, HSet, Incr, Pipeline, ...) is provided by Client on top of Store.Exec.
package kv

import (
	"context"
	"errors"
)

// Store is the minimal surface a backend implements.
type Store interface {
	// Exec applies ops in order as a single unit. Results are written back
	// into each Op. Reads of missing keys are not errors.
	//
	// Embedded backends (memory, badger) apply the batch atomically and roll
	// it back entirely if any op fails. The redis backend wraps batches of
	// more than one op in MULTI/EXEC: other clients never observe a partial
	// batch, but a command failing at runtime does not undo the others.
	Exec(ctx context.Context, ops []*Op) error

	// Keys returns every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Healthcheck verifies the backend is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases backend resources. The store is unusable afterwards.
	Close() error
}

var (
	// ErrWrongType is returned when a string command hits a hash key or the
	// other way round.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrNoSuchKey is returned by Rename when the source key does not exist.
	ErrNoSuchKey = errors.New("no such key")

	// ErrNotInteger is returned by Incr when the stored value is not a
	// base-10 64-bit integer or the increment would overflow.
	ErrNotInteger = errors.New("value is not an integer or out of range")

	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("store is closed")
)

package kv

import (
	"context"
	"time"

	"github.com/marmos91/dittotree/internal/ratelimiter"
	"github.com/marmos91/dittotree/pkg/metrics"
)

// RateLimitedStore throttles backend traffic with a token bucket: one token
// per command, so a batch of n commands waits for n tokens.
type RateLimitedStore struct {
	Store
	limiter *ratelimiter.RateLimiter
}

// NewRateLimitedStore wraps store. A nil limiter disables throttling.
func NewRateLimitedStore(store Store, limiter *ratelimiter.RateLimiter) *RateLimitedStore {
	if limiter == nil {
		limiter = ratelimiter.New(0, 0)
	}
	return &RateLimitedStore{Store: store, limiter: limiter}
}

func (s *RateLimitedStore) Exec(ctx context.Context, ops []*Op) error {
	if err := s.limiter.WaitN(ctx, len(ops)); err != nil {
		return err
	}
	return s.Store.Exec(ctx, ops)
}

func (s *RateLimitedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.Store.Keys(ctx, prefix)
}

// InstrumentedStore reports the latency and outcome of every backend
// round-trip. Single commands are labelled with their command name, larger
// batches as "batch".
type InstrumentedStore struct {
	Store
	metrics metrics.TreeMetrics
}

// NewInstrumentedStore wraps store. A nil collector falls back to a no-op.
func NewInstrumentedStore(store Store, m metrics.TreeMetrics) *InstrumentedStore {
	if m == nil {
		m = metrics.NewNoopTreeMetrics()
	}
	return &InstrumentedStore{Store: store, metrics: m}
}

func (s *InstrumentedStore) Exec(ctx context.Context, ops []*Op) error {
	start := time.Now()
	err := s.Store.Exec(ctx, ops)

	name := "batch"
	if len(ops) == 1 {
		name = ops[0].Kind.String()
	}
	s.metrics.RecordBackendOperation(name, time.Since(start), err)
	return err
}

func (s *InstrumentedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	keys, err := s.Store.Keys(ctx, prefix)
	s.metrics.RecordBackendOperation("keys", time.Since(start), err)
	return keys, err
}

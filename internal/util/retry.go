// Package util provides shared helpers for DittoTree.
package util

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

// ConflictRetryOptions returns retry options for optimistic transaction
// conflicts. Conflicts clear as soon as the competing writer commits, so the
// delays are short and jittered to keep contending writers apart.
func ConflictRetryOptions(ctx context.Context, isConflict func(error) bool) []retry.Option {
	return []retry.Option{
		retry.Attempts(10),
		retry.Delay(2 * time.Millisecond),
		retry.MaxDelay(50 * time.Millisecond),
		retry.MaxJitter(5 * time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(isConflict),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	}
}

// ConnectRetryOptions returns retry options for reaching a remote backend at
// startup. attempts below 1 is treated as 1.
func ConnectRetryOptions(ctx context.Context, attempts uint) []retry.Option {
	if attempts < 1 {
		attempts = 1
	}
	return []retry.Option{
		retry.Attempts(attempts),
		retry.Delay(100 * time.Millisecond),
		retry.MaxDelay(2 * time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	}
}

// Retry executes fn with retry logic.
// Returns the last error if all attempts fail.
func Retry(ctx context.Context, fn func() error, opts ...retry.Option) error {
	if len(opts) == 0 {
		opts = ConnectRetryOptions(ctx, 3)
	}
	return retry.Do(fn, opts...)
}

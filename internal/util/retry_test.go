package util

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestRetryConflictEventuallySucceeds(t *testing.T) {
	ctx := context.Background()
	calls := 0

	err := Retry(ctx, func() error {
		calls++
		if calls < 3 {
			return errConflict
		}
		return nil
	}, ConflictRetryOptions(ctx, func(err error) bool { return errors.Is(err, errConflict) })...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnOtherErrors(t *testing.T) {
	ctx := context.Background()
	other := errors.New("wrong type")
	calls := 0

	err := Retry(ctx, func() error {
		calls++
		return other
	}, ConflictRetryOptions(ctx, func(err error) bool { return errors.Is(err, errConflict) })...)

	require.ErrorIs(t, err, other)
	assert.Equal(t, 1, calls)
}

func TestConnectRetryAttempts(t *testing.T) {
	ctx := context.Background()
	calls := 0

	err := Retry(ctx, func() error {
		calls++
		return errConflict
	}, ConnectRetryOptions(ctx, 0)...)

	require.ErrorIs(t, err, errConflict)
	assert.Equal(t, 1, calls)
}

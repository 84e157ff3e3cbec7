package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devplatform/pkg/resilience"
)

var errTransient = errors.New("transient")

func noWait(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	var waits []time.Duration
	r := resilience.New("test", resilience.Config{
		MaxAttempts:    4,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     25 * time.Millisecond,
		Multiplier:     2,
	}).WithWait(noWait(&waits))

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 4 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}, waits)
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	var waits []time.Duration
	r := resilience.New("test", resilience.DefaultConfig()).WithWait(noWait(&waits))

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
	assert.Len(t, waits, 2)
}

func TestDoDoesNotRetryRejectedErrors(t *testing.T) {
	errPermanent := errors.New("permanent")
	r := resilience.New("test", resilience.Config{
		MaxAttempts: 5,
		ShouldRetry: func(err error) bool { return !errors.Is(err, errPermanent) },
	})

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errPermanent
	})

	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
}

func TestDoCanceledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := resilience.New("test", resilience.Config{MaxAttempts: 3, InitialBackoff: time.Hour})

	err := r.Do(ctx, func(context.Context) error {
		cancel()
		return errTransient
	})

	require.ErrorIs(t, err, resilience.ErrRetryCanceled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDoWithResult(t *testing.T) {
	var waits []time.Duration
	r := resilience.New("test", resilience.DefaultConfig()).WithWait(noWait(&waits))

	calls := 0
	got, err := resilience.DoWithResult(context.Background(), r, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestNotCanceled(t *testing.T) {
	assert.True(t, resilience.NotCanceled(errTransient))
	assert.False(t, resilience.NotCanceled(context.Canceled))
	assert.False(t, resilience.NotCanceled(context.DeadlineExceeded))
}

package retry_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/engine/retry"
)

var (
	errFlaky = errors.New("flaky")
	errFatal = errors.New("fatal")
)

func policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Backoff:     retry.Exponential(time.Second, 8*time.Second),
		IsRetryable: func(err error) bool { return errors.Is(err, errFlaky) },
	}
}

func TestExponential(t *testing.T) {
	fn := retry.Exponential(time.Second, 8*time.Second)

	assert.Equal(t, time.Second, fn(0))
	assert.Equal(t, 2*time.Second, fn(1))
	assert.Equal(t, 4*time.Second, fn(2))
	assert.Equal(t, 8*time.Second, fn(3))
	assert.Equal(t, 8*time.Second, fn(10))
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var delays []time.Duration
		p := policy()
		p.OnRetry = func(_ int, _ error, delay time.Duration) {
			delays = append(delays, delay)
		}

		calls := 0
		start := time.Now()
		got, err := retry.Do(t.Context(), p, func(_ context.Context, attempt int) (string, error) {
			calls++
			if attempt < 3 {
				return "", errFlaky
			}
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
		assert.GreaterOrEqual(t, time.Since(start), 6*time.Second)
	})
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		calls := 0
		_, err := retry.Do(t.Context(), policy(), func(_ context.Context, _ int) (int, error) {
			calls++
			return 0, errFlaky
		})

		require.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 3, calls)
	})
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		calls := 0
		start := time.Now()
		got, err := retry.Do(t.Context(), policy(), func(_ context.Context, _ int) (int, error) {
			calls++
			return 7, errFatal
		})

		require.ErrorIs(t, err, errFatal)
		assert.Equal(t, 7, got)
		assert.Equal(t, 1, calls)
		assert.Zero(t, time.Since(start))
	})
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		p := policy()
		p.OnRetry = func(_ int, _ error, _ time.Duration) { cancel() }

		_, err := retry.Do(ctx, p, func(_ context.Context, _ int) (int, error) {
			return 0, errFlaky
		})

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestDo_SingleAttemptPolicy(t *testing.T) {
	calls := 0
	_, err := retry.Do(t.Context(), retry.Policy{}, func(_ context.Context, _ int) (int, error) {
		calls++
		return 0, errFlaky
	})

	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

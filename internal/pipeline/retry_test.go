package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"ReelForge/internal/pipeline/storage"
	types "ReelForge/pkg"
)

var fastRetry = types.RetryConfig{MaxAttempts: 3, InitialIntervalSec: 0.001, BackoffCoefficient: 2}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), zaptest.NewLogger(t), fastRetry, "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Retry(context.Background(), zaptest.NewLogger(t), fastRetry, "op", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentAndNotFound(t *testing.T) {
	tests := map[string]error{
		"permanent": Permanent(errors.New("bad input")),
		"not found": fmt.Errorf("get: %w", storage.ErrNotFound),
	}
	for name, failure := range tests {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), zaptest.NewLogger(t), fastRetry, "op", func() error {
				calls++
				return failure
			})
			assert.Error(t, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRetry_PermanentIsUnwrapped(t *testing.T) {
	inner := errors.New("bad input")
	err := Retry(context.Background(), zaptest.NewLogger(t), fastRetry, "op", func() error {
		return Permanent(inner)
	})
	assert.Equal(t, inner, err)
	assert.Nil(t, Permanent(nil))
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	slow := types.RetryConfig{MaxAttempts: 5, InitialIntervalSec: 10, BackoffCoefficient: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Retry(ctx, zaptest.NewLogger(t), slow, "op", func() error { return errors.New("flaky") })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRetry_ZeroConfigRunsOnce(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), zaptest.NewLogger(t), types.RetryConfig{}, "op", func() error {
		calls++
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	types "ReelForge/pkg"
	"ReelForge/internal/pipeline/storage"
)

// permanentError stops Retry immediately.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs fn until it succeeds, returns a permanent error, the attempt
// budget is spent, or ctx is done. Missing storage keys are never retried.
func Retry(ctx context.Context, logger *zap.Logger, retryCfg types.RetryConfig, operation string, fn func() error) error {
	maxAttempts := retryCfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	interval := time.Duration(retryCfg.InitialIntervalSec * float64(time.Second))
	backoff := retryCfg.BackoffCoefficient
	if backoff < 1 {
		backoff = 1
	}

	var attempts int32
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("Retry cancelled", zap.String("operation", operation), zap.Error(err))
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		attempts++

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if attempts >= maxAttempts {
			logger.Error("Retry limit reached", zap.String("operation", operation), zap.Int32("attempts", attempts), zap.Error(err))
			return err
		}
		logger.Warn("Retry attempt failed", zap.String("operation", operation), zap.Int32("attempt", attempts), zap.Duration("backoff", interval), zap.Error(err))

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn("Retry cancelled", zap.String("operation", operation), zap.Error(ctx.Err()))
			return ctx.Err()
		case <-timer.C:
		}
		interval = time.Duration(float64(interval) * backoff)
	}
}

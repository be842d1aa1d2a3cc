// Package service provides the polling engine: the retry policy around each
// transport read, the per-cycle unit iteration, and the fixed-interval
// scheduler that drives it.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/rs/zerolog"
)

// RetryPolicy wraps a single transport read with bounded attempts and a
// constant inter-attempt delay. Escalation on exhaustion is decided by the
// caller from the driver's policy; the retry loop itself is policy-free.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// Backoff is the constant delay slept between attempts.
	Backoff time.Duration
}

// DefaultRetryPolicy matches the reference behavior: three attempts with a
// half-second constant interval.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}
}

// Validate checks the policy parameters.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be at least 1", domain.ErrInvalidConfig)
	}
	if p.Backoff < 0 {
		return fmt.Errorf("%w: retry backoff must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// Do invokes read up to MaxAttempts times, sleeping Backoff between
// attempts. On success the block is returned immediately; on exhaustion the
// last error is wrapped in ErrRetriesExhausted. Context cancellation is
// observed during backoff sleeps, never mid-read.
func (p RetryPolicy) Do(ctx context.Context, logger zerolog.Logger, read func() ([]uint16, error)) ([]uint16, error) {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			logger.Debug().
				Int("attempt", attempt).
				Dur("backoff", p.Backoff).
				Err(lastErr).
				Msg("Retrying Modbus read")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.Backoff):
			}
		}

		block, err := read()
		if err == nil {
			return block, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %d attempts: %v", domain.ErrRetriesExhausted, p.MaxAttempts, lastErr)
}

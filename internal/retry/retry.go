// Package retry provides the single retry policy shared by every upstream
// fetch operation, so backoff behavior is consistent and testable away from
// network code.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy retries an operation with exponential backoff. Errors matched by
// the permanent predicate abort the loop immediately — retrying against a
// rate limit just burns the budget.
type Policy struct {
	maxAttempts uint64
	baseDelay   time.Duration
	maxDelay    time.Duration
	permanent   func(error) bool
}

// NewPolicy creates a retry policy. maxAttempts counts the initial attempt;
// values below 1 are treated as 1. permanent may be nil.
func NewPolicy(maxAttempts int, baseDelay, maxDelay time.Duration, permanent func(error) bool) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Policy{
		maxAttempts: uint64(maxAttempts),
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		permanent:   permanent,
	}
}

// Do runs op until it succeeds, the attempt budget is exhausted, a permanent
// error occurs, or ctx is cancelled. The returned error is the last error op
// produced (unwrapped from any permanent marker).
func (p *Policy) Do(ctx context.Context, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.baseDelay
	b.MaxInterval = p.maxDelay
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	wrapped := func() error {
		err := op(ctx)
		if err != nil && p.permanent != nil && p.permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, p.maxAttempts-1), ctx))
}

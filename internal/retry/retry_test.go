package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("connection reset")
var errRateLimited = errors.New("rate limited")

func isRateLimited(err error) bool { return errors.Is(err, errRateLimited) }

func TestSucceedsAfterTransientFailures(t *testing.T) {
	p := NewPolicy(3, time.Millisecond, 5*time.Millisecond, isRateLimited)

	attempts := 0
	err := p.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExhaustsAttemptBudget(t *testing.T) {
	p := NewPolicy(3, time.Millisecond, 5*time.Millisecond, isRateLimited)

	attempts := 0
	err := p.Do(context.Background(), func(context.Context) error {
		attempts++
		return errTransient
	})

	if !errors.Is(err, errTransient) {
		t.Fatalf("expected the last transient error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestRateLimitShortCircuits(t *testing.T) {
	p := NewPolicy(5, time.Millisecond, 5*time.Millisecond, isRateLimited)

	attempts := 0
	err := p.Do(context.Background(), func(context.Context) error {
		attempts++
		return errRateLimited
	})

	if !errors.Is(err, errRateLimited) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("rate limit must abort immediately, got %d attempts", attempts)
	}
}

func TestNilPredicateRetriesEverything(t *testing.T) {
	p := NewPolicy(2, time.Millisecond, 5*time.Millisecond, nil)

	attempts := 0
	_ = p.Do(context.Background(), func(context.Context) error {
		attempts++
		return errRateLimited
	})

	if attempts != 2 {
		t.Fatalf("expected both attempts without a predicate, got %d", attempts)
	}
}

func TestContextCancellationStopsRetries(t *testing.T) {
	p := NewPolicy(10, 50*time.Millisecond, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := p.Do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return errTransient
	})

	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if attempts != 1 {
		t.Fatalf("expected no further attempts after cancel, got %d", attempts)
	}
}

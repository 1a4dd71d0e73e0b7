package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fastPolicy(3), isFlaky, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errFlaky
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 || calls != 3 {
		t.Fatalf("expected 42 after 3 calls, got %d after %d", v, calls)
	}
}

func TestDoStopsAtAttemptBudget(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(2), isFlaky, func(context.Context) error {
		calls++
		return errFlaky
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected flaky error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Run(context.Background(), fastPolicy(5), isFlaky, func(context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

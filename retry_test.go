package dbal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithPolicy_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := RetryWithPolicy(context.Background(), "op", fastPolicy(3), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithPolicy_ExactAttemptCount(t *testing.T) {
	boom := errors.New("transient failure")
	for _, attempts := range []int{1, 2, 3, 5} {
		calls := 0
		err := RetryWithPolicy(context.Background(), "op", fastPolicy(attempts), func(ctx context.Context) error {
			calls++
			return boom
		})
		if calls != attempts {
			t.Fatalf("MaxAttempts=%d: expected %d calls, got %d", attempts, attempts, calls)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("MaxAttempts=%d: expected original error, got %v", attempts, err)
		}
	}
}

func TestRetryWithPolicy_LastErrorUnwrapped(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	errs := []error{first, second}
	calls := 0
	err := RetryWithPolicy(context.Background(), "op", fastPolicy(2), func(ctx context.Context) error {
		e := errs[calls]
		calls++
		return e
	})
	// The error surfaced is the last attempt's, identical, not a wrapper type.
	if err != second {
		t.Fatalf("expected last error identity, got %v", err)
	}
}

func TestRetryWithPolicy_RecoversMidway(t *testing.T) {
	calls := 0
	err := RetryWithPolicy(context.Background(), "op", fastPolicy(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithPolicy_ZeroPolicyNormalized(t *testing.T) {
	calls := 0
	err := RetryWithPolicy(context.Background(), "op", RetryPolicy{}, func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// MaxAttempts < 1 normalizes to a single attempt.
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithPolicy_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithPolicy(ctx, "op", RetryPolicy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation took effect, got %d", calls)
	}
}

func TestRetry_GaveUpTaskInvoked(t *testing.T) {
	// A short deadline cuts the default backoff so the test stays fast.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	gaveUp := false
	err := Retry(ctx, "op",
		func(ctx context.Context) error { return errors.New("always fails") },
		func(ctx context.Context) { gaveUp = true })
	if err == nil {
		t.Fatal("expected error")
	}
	if !gaveUp {
		t.Fatal("gave-up task not invoked")
	}
}

func TestRetry_GaveUpTaskSkippedOnSuccess(t *testing.T) {
	gaveUp := false
	err := Retry(context.Background(), "op",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) { gaveUp = true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gaveUp {
		t.Fatal("gave-up task must not run on success")
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts=%d, want 3", p.MaxAttempts)
	}
	if p.BaseDelay != time.Second {
		t.Errorf("BaseDelay=%v, want 1s", p.BaseDelay)
	}
}

package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	errs "kvbackup/pkg/errors"
)

func rateLimited() error {
	return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "too many requests", Code: 429}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Millisecond}, RetryIf: DefaultRetryIf})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	// Two rate limit responses, then success: three attempts in total
	calls := 0
	err := Do(func() error {
		calls++
		if calls <= 2 {
			return rateLimited()
		}
		return nil
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Millisecond}, RetryIf: DefaultRetryIf})

	if err != nil {
		t.Fatalf("Expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return rateLimited()
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Millisecond}, RetryIf: DefaultRetryIf})

	if err == nil {
		t.Fatal("Expected an error after exhausting attempts")
	}
	if calls != 5 {
		t.Errorf("Expected exactly 5 attempts, got %d", calls)
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) {
		t.Error("Expected the last error to be wrapped in the result")
	}
}

func TestDoDoesNotRetryNonRetryable(t *testing.T) {
	calls := 0
	authErr := &errs.Error{Type: errs.ErrorTypeAuth, Message: "bad token", Code: 401}

	err := Do(func() error {
		calls++
		return authErr
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Millisecond}, RetryIf: DefaultRetryIf})

	if !errors.Is(err, authErr) {
		t.Errorf("Expected the original error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt for a non-retryable error, got %d", calls)
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	value, err := DoWithResult(func() ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, &errs.Error{Type: errs.ErrorTypeNetwork, Message: "connection reset", Code: 0}
		}
		return []byte("payload"), nil
	}, &Config{MaxAttempts: 3, Backoff: &ConstantBackoff{Delay: time.Millisecond}, RetryIf: DefaultRetryIf})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if string(value) != "payload" {
		t.Errorf("Expected the successful result, got %q", value)
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(func() error {
		return rateLimited()
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
	})

	if err == nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation error, got %v", err)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", rateLimited(), true},
		{"network", &errs.Error{Type: errs.ErrorTypeNetwork}, true},
		{"auth", &errs.Error{Type: errs.ErrorTypeAuth, Code: 401}, false},
		{"not found", &errs.Error{Type: errs.ErrorTypeNotFound, Code: 404}, false},
		{"server error", &errs.Error{Type: errs.ErrorTypeServerError, Code: 500}, false},
		{"wrapped retryable", fmt.Errorf("fetch: %w", rateLimited()), true},
		{"context canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExponentialBackoffDoubles(t *testing.T) {
	eb := &ExponentialBackoff{BaseDelay: time.Second, Multiplier: 2.0}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, expected := range want {
		if got := eb.NextDelay(i + 1); got != expected {
			t.Errorf("NextDelay(%d) = %v, want %v", i+1, got, expected)
		}
	}
}

func TestExponentialBackoffCap(t *testing.T) {
	eb := &ExponentialBackoff{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2.0}

	if got := eb.NextDelay(10); got != 5*time.Second {
		t.Errorf("Expected delay capped at 5s, got %v", got)
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	eb := &ExponentialBackoff{BaseDelay: time.Second, Multiplier: 2.0, JitterFactor: 0.1}

	for i := 0; i < 50; i++ {
		delay := eb.NextDelay(1)
		if delay < 900*time.Millisecond || delay > 1100*time.Millisecond {
			t.Fatalf("Jittered delay %v outside [900ms, 1100ms]", delay)
		}
	}
}

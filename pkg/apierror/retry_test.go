package apierror_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vercel/v0-sdk-sub002/pkg/apierror"
)

// ---------------------------------------------------------------------------
// TestRetryWithBackoff - generic retry loop
// ---------------------------------------------------------------------------

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	fast := apierror.RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	t.Run("success on first try returns immediately", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := apierror.RetryWithBackoff(context.Background(), fast,
			func() (string, error) {
				calls++
				return "ok", nil
			}, nil)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "ok" || calls != 1 {
			t.Errorf("got (%q, %d calls), want (\"ok\", 1 call)", got, calls)
		}
	})

	t.Run("default policy retries retryable kinds", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := apierror.RetryWithBackoff(context.Background(), fast,
			func() (int, error) {
				calls++
				if calls < 3 {
					return 0, apierror.Classify(503)
				}
				return 42, nil
			}, nil)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 42 || calls != 3 {
			t.Errorf("got (%d, %d calls), want (42, 3 calls)", got, calls)
		}
	})

	t.Run("default policy stops on terminal kinds", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := apierror.RetryWithBackoff(context.Background(), fast,
			func() (int, error) {
				calls++
				return 0, apierror.Classify(402)
			}, nil)

		if !errors.Is(err, apierror.ErrPaymentRequired) {
			t.Errorf("error = %v, want ErrPaymentRequired", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("max retries exceeded wraps last error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := apierror.RetryWithBackoff(context.Background(),
			apierror.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond},
			func() (int, error) {
				calls++
				return 0, apierror.Classify(429)
			}, nil)

		if !errors.Is(err, apierror.ErrRateLimited) {
			t.Errorf("error = %v, want wrapped ErrRateLimited", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3 (1 initial + 2 retries)", calls)
		}
	})

	t.Run("negative MaxRetries normalized to single attempt", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := apierror.RetryWithBackoff(context.Background(),
			apierror.RetryConfig{MaxRetries: -1},
			func() (int, error) {
				calls++
				return 0, apierror.Classify(500)
			}, nil)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		_, err := apierror.RetryWithBackoff(ctx,
			apierror.RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Minute},
			func() (int, error) {
				calls++
				return 0, apierror.Classify(503)
			}, nil)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retry after is capped by MaxDelay", func(t *testing.T) {
		t.Parallel()

		calls := 0
		start := time.Now()
		_, err := apierror.RetryWithBackoff(context.Background(),
			apierror.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
			func() (int, error) {
				calls++
				if calls == 1 {
					e := apierror.Classify(429)
					e.RetryAfter = time.Hour
					return 0, e
				}
				return 1, nil
			}, nil)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("waited %v, want at most MaxDelay", elapsed)
		}
	})
}

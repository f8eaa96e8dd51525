package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func noSleepPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
		Rand:        func() float64 { return 0.5 },
	}
}

func respWithStatus(status int) *http.Response {
	return &http.Response{StatusCode: status, Header: http.Header{}}
}

func TestDoHTTP_RetriesTransientStatusThenSucceeds(t *testing.T) {
	attempts := 0
	resp, _, err := DoHTTP(context.Background(), noSleepPolicy(3), nil, func(ctx context.Context) (*http.Response, []byte, error) {
		attempts++
		if attempts < 3 {
			return respWithStatus(http.StatusServiceUnavailable), nil, nil
		}
		return respWithStatus(http.StatusOK), []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("DoHTTP failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoHTTP_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	resp, _, err := DoHTTP(context.Background(), noSleepPolicy(3), nil, func(ctx context.Context) (*http.Response, []byte, error) {
		attempts++
		return respWithStatus(http.StatusNotFound), nil, nil
	})
	if err != nil {
		t.Fatalf("DoHTTP failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 passed through, got %d", resp.StatusCode)
	}
	if attempts != 1 {
		t.Errorf("expected single attempt, got %d", attempts)
	}
}

func TestDoHTTP_ExhaustionWrapsStatusError(t *testing.T) {
	attempts := 0
	_, _, err := DoHTTP(context.Background(), noSleepPolicy(2), nil, func(ctx context.Context) (*http.Response, []byte, error) {
		attempts++
		return respWithStatus(http.StatusTooManyRequests), []byte("slow down"), nil
	})
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got: %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected wrapped HTTPStatusError 429, got: %v", err)
	}
}

func TestDoHTTP_CanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, _, err := DoHTTP(ctx, noSleepPolicy(3), nil, func(ctx context.Context) (*http.Response, []byte, error) {
		attempts++
		return respWithStatus(http.StatusOK), nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if attempts != 0 {
		t.Errorf("expected no attempts on canceled context, got %d", attempts)
	}
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	p := withDefaults(Policy{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	})

	if got := p.backoffDelay(1); got != 100*time.Millisecond {
		t.Errorf("first delay: got %v", got)
	}
	if got := p.backoffDelay(3); got != 400*time.Millisecond {
		t.Errorf("third delay: got %v", got)
	}
	if got := p.backoffDelay(10); got != time.Second {
		t.Errorf("expected cap at MaxDelay, got %v", got)
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")

	d, ok := parseRetryAfter(h, time.Now())
	if !ok || d != 7*time.Second {
		t.Fatalf("expected 7s, got %v (used=%v)", d, ok)
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	now := time.Now().UTC()
	h := http.Header{}
	h.Set("Retry-After", now.Add(30*time.Second).Format(http.TimeFormat))

	d, ok := parseRetryAfter(h, now)
	if !ok {
		t.Fatalf("expected date to be accepted")
	}
	if d < 29*time.Second || d > 31*time.Second {
		t.Fatalf("expected ~30s, got %v", d)
	}
}

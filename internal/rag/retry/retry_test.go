package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, CallTimeout: time.Second}
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	calls := 0
	got, retries, err := Do(context.Background(), fastPolicy(3), "embedding", "embed", func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", &docErrors.ApiError{StatusCode: 429, Retryable: true, Cause: errors.New("rate limited")}
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || retries != 2 || calls != 3 {
		t.Errorf("got %q after %d retries and %d calls", got, retries, calls)
	}
}

func TestDo_SurfacesApiErrorAfterExhaustion(t *testing.T) {
	calls := 0
	_, retries, err := Do(context.Background(), fastPolicy(3), "llm", "complete", func(ctx context.Context) (int, error) {
		calls++
		return 0, status.Error(codes.Unavailable, "down")
	})

	var apiErr *docErrors.ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ApiError, got %v", err)
	}
	if apiErr.Attempts != 3 || apiErr.Service != "llm" || calls != 3 || retries != 2 {
		t.Errorf("attempts=%d service=%s calls=%d retries=%d", apiErr.Attempts, apiErr.Service, calls, retries)
	}
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	_, _, err := Do(context.Background(), fastPolicy(5), "llm", "complete", func(ctx context.Context) (int, error) {
		calls++
		return 0, &docErrors.ApiError{StatusCode: 401, Retryable: false, Cause: errors.New("bad key")}
	})
	if calls != 1 {
		t.Errorf("permanent error was retried %d times", calls-1)
	}
	if !docErrors.IsApi(err) {
		t.Errorf("expected ApiError, got %v", err)
	}
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	p := fastPolicy(2)
	p.CallTimeout = 10 * time.Millisecond

	calls := 0
	_, _, err := Do(context.Background(), p, "embedding", "embed", func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if calls != 2 {
		t.Errorf("timed out attempt should be retried, got %d calls", calls)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error in chain, got %v", err)
	}
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, _, err := Do(ctx, fastPolicy(5), "llm", "complete", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, status.Error(codes.Unavailable, "down")
	})
	if calls != 1 || err == nil {
		t.Errorf("calls=%d err=%v", calls, err)
	}
}

func TestBackoff(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := backoff(p, i+1); got != w {
			t.Errorf("backoff(%d) = %v; want %v", i+1, got, w)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"config", docErrors.NewConfigError("top_k", "bad"), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("%s: IsRetryable = %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestRetryableStatus(t *testing.T) {
	for code, want := range map[int]bool{429: true, 500: true, 503: true, 400: false, 401: false, 404: false} {
		if got := RetryableStatus(code); got != want {
			t.Errorf("RetryableStatus(%d) = %v", code, got)
		}
	}
}

// Package retry runs external API calls with a per-attempt timeout and exponential backoff.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/metrics"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Policy struct {
	Attempts    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	CallTimeout time.Duration
}

func PolicyFrom(opts config.Options) Policy {
	return Policy{
		Attempts:    opts.RetryAttempts,
		BaseDelay:   opts.RetryBaseDelay,
		MaxDelay:    opts.RetryMaxDelay,
		CallTimeout: opts.CallTimeout,
	}
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:    config.DefaultRetryAttempts,
		BaseDelay:   config.DefaultRetryBaseDelay,
		MaxDelay:    config.DefaultRetryMaxDelay,
		CallTimeout: config.DefaultCallTimeout,
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. It returns the number of retries performed. Failures are
// returned as *docErrors.ApiError.
func Do[T any](ctx context.Context, p Policy, service string, op string, fn func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T
	attempts := max(p.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := call(ctx, p.CallTimeout, fn)
		if err == nil {
			return result, attempt - 1, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) || attempt == attempts {
			return zero, attempt - 1, toApiError(service, op, attempt, err)
		}

		metrics.IncrementApiRetries(service)
		if err := sleep(ctx, backoff(p, attempt)); err != nil {
			return zero, attempt - 1, toApiError(service, op, attempt, lastErr)
		}
	}
	return zero, attempts - 1, toApiError(service, op, attempts, lastErr)
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

func backoff(p Policy, attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsRetryable reports whether err is a transient failure: rate limits, server
// errors, timeouts and network errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *docErrors.ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	if docErrors.IsConfig(err) || docErrors.IsExtraction(err) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryableStatus reports whether an HTTP status code is worth retrying.
func RetryableStatus(code int) bool {
	return code == 429 || code == 408 || code >= 500
}

func toApiError(service, op string, attempts int, err error) error {
	var apiErr *docErrors.ApiError
	if errors.As(err, &apiErr) {
		wrapped := *apiErr
		wrapped.Attempts = attempts
		if wrapped.Service == "" {
			wrapped.Service = service
		}
		if wrapped.Op == "" {
			wrapped.Op = op
		}
		return &wrapped
	}
	return &docErrors.ApiError{
		Service:   service,
		Op:        op,
		Retryable: IsRetryable(err),
		Attempts:  attempts,
		Cause:     err,
	}
}

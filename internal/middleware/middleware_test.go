package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"
)

func TestWrap_InjectsTrace(t *testing.T) {
	var seen string
	h := Wrap(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(config.TRACE_ID_KEY).(string)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("keeps the caller's trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		req.Header.Set("X-Trace-Id", "trace-abc")
		rec := httptest.NewRecorder()
		h(rec, req)

		if seen != "trace-abc" || rec.Header().Get("X-Trace-Id") != "trace-abc" {
			t.Errorf("trace = %q, header = %q", seen, rec.Header().Get("X-Trace-Id"))
		}
	})

	t.Run("generates one when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.2:1000"
		rec := httptest.NewRecorder()
		h(rec, req)

		if seen == "" || rec.Header().Get("X-Trace-Id") != seen {
			t.Errorf("trace = %q, header = %q", seen, rec.Header().Get("X-Trace-Id"))
		}
	})
}

func TestWrap_RateLimitsPerIP(t *testing.T) {
	calls := 0
	h := Wrap(func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	codes := map[int]int{}
	for i := 0; i < config.BURST_RATE_LIMIT_PER_SECOND+3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.3:1000"
		rec := httptest.NewRecorder()
		h(rec, req)
		codes[rec.Code]++
	}

	if codes[http.StatusTooManyRequests] == 0 {
		t.Errorf("expected some requests to be limited, got %v", codes)
	}
	if calls < config.BURST_RATE_LIMIT_PER_SECOND {
		t.Errorf("burst should pass, handler ran %d times", calls)
	}

	// a different client is not affected
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.4:1000"
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other ip status = %d", rec.Code)
	}
}

func TestWrap_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/status/{id}", Wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	counter := metrics.HttpRequestsTotal.WithLabelValues("/status/{id}", "404")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/status/job-123", nil)
	req.RemoteAddr = "10.0.0.5:1000"
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("pattern-labelled counter delta = %v", got)
	}
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewIPRateLimiter(rate.Limit(1), 1)
	l.now = func() time.Time { return now }

	first := l.GetLimiter("1.1.1.1")
	if l.GetLimiter("1.1.1.1") != first {
		t.Fatal("same ip should reuse its limiter")
	}
	l.GetLimiter("2.2.2.2")

	now = now.Add(config.RateLimiterIdleTTL / 2)
	l.GetLimiter("2.2.2.2")

	now = now.Add(config.RateLimiterIdleTTL/2 + time.Second)
	l.GetLimiter("3.3.3.3")

	if l.Len() != 2 {
		t.Errorf("idle client should have been evicted, %d left", l.Len())
	}
	if l.GetLimiter("1.1.1.1") == first {
		t.Error("evicted client should get a fresh limiter")
	}
}

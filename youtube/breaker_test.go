package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestBreaker(cfg BreakerConfig) (*Breaker, *time.Time) {
	b := newBreaker(cfg, zerolog.Nop())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func serverErr() error { return &RemoteAPIError{Status: http.StatusServiceUnavailable} }

func TestBreaker_OpensAfterConsecutiveTransientFailures(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		b.Record(serverErr())
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow after %d failures = %v, want nil", i+1, err)
		}
	}
	b.Record(serverErr())

	if got := b.State(); got != BreakerOpen {
		t.Fatalf("State = %v, want open", got)
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("Allow = %v, want ErrBreakerOpen", err)
	}
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute})

	for i := 0; i < 10; i++ {
		b.Record(&RemoteAPIError{Status: http.StatusNotFound})
	}
	if got := b.State(); got != BreakerClosed {
		t.Fatalf("State = %v, want closed", got)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Minute})

	b.Record(serverErr())
	b.Record(serverErr())
	b.Record(nil)
	b.Record(serverErr())
	b.Record(serverErr())

	if got := b.State(); got != BreakerClosed {
		t.Fatalf("State = %v, want closed", got)
	}
}

func TestBreaker_RecoveryAdmitsSingleProbe(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Minute})
	b.Record(serverErr())

	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("Allow while open = %v, want ErrBreakerOpen", err)
	}
	*now = now.Add(time.Minute)

	if err := b.Allow(); err != nil {
		t.Fatalf("probe Allow = %v, want nil", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("second Allow during probe = %v, want ErrBreakerOpen", err)
	}

	b.Record(nil)
	if got := b.State(); got != BreakerClosed {
		t.Fatalf("State after probe success = %v, want closed", got)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow after close = %v, want nil", err)
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Minute})
	b.Record(serverErr())
	*now = now.Add(time.Minute)

	if err := b.Allow(); err != nil {
		t.Fatalf("probe Allow = %v, want nil", err)
	}
	b.Record(serverErr())

	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("Allow after failed probe = %v, want ErrBreakerOpen", err)
	}
}

func TestClient_OpenBreakerFailsFastWithoutRequests(t *testing.T) {
	var hits atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	c.breaker = newBreaker(BreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Hour}, zerolog.Nop())

	err := c.call(context.Background(), ScopeReadonly, http.MethodGet, "/subscriptions", url.Values{}, nil, nil)
	if !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("first call error = %v, want ErrBreakerOpen after circuit trips", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("server hits = %d, want 2", got)
	}

	err = c.call(context.Background(), ScopeReadonly, http.MethodGet, "/subscriptions", url.Values{}, nil, nil)
	if !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("second call error = %v, want ErrBreakerOpen", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("server hits after fail-fast call = %d, want still 2", got)
	}
}

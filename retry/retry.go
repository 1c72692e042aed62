// Package retry provides bounded exponential backoff for remote calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds retry configuration.
type Config struct {
	// Retries is the number of additional attempts after the first failure.
	Retries int
	// BaseDelay is the delay before the first retry. The delay before
	// retry k (1-indexed) is BaseDelay * 2^(k-1).
	BaseDelay time.Duration
}

// DefaultConfig returns the default retry policy.
func DefaultConfig() Config {
	return Config{
		Retries:   5,
		BaseDelay: 500 * time.Millisecond,
	}
}

// Classifier determines if an error is retryable.
type Classifier func(error) bool

// RetryAll retries on every error. It preserves the most conservative
// behavior: nothing is assumed about the failure mode.
func RetryAll(error) bool { return true }

// RetryTransient is a classifier that skips retries for errors known to be
// permanent: context cancellation and callers that marked the error with
// Permanent.
func RetryTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var p *PermanentError
	return !errors.As(err, &p)
}

// PermanentError marks an error as not worth retrying.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so RetryTransient stops retrying on it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// ExhaustedError wraps the last error after the retry budget ran out.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// sleepFunc waits for d or until ctx is done. Overridable in tests.
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do executes fn, retrying on failure with pure exponential backoff.
// A nil classifier retries unconditionally. The last error is returned
// (wrapped in ExhaustedError) once the budget is spent.
func Do(ctx context.Context, cfg Config, classifier Classifier, fn func(context.Context) error) error {
	if classifier == nil {
		classifier = RetryAll
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !classifier(lastErr) {
			return lastErr
		}
		if attempt == cfg.Retries {
			break
		}

		delay := cfg.BaseDelay << uint(attempt)
		if err := sleepFunc(ctx, delay); err != nil {
			return err
		}
	}

	return &ExhaustedError{Attempts: cfg.Retries + 1, Err: lastErr}
}

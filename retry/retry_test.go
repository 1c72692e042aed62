package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func captureSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleepFunc = orig })
	return &delays
}

func TestDo_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), DefaultConfig(), nil, func(ctx context.Context) error {
		attempts++
		return nil
	})
	if err != nil {
		t.Errorf("Do() returned error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_ExponentialDelays(t *testing.T) {
	delays := captureSleeps(t)

	attempts := 0
	cfg := Config{Retries: 2, BaseDelay: 500 * time.Millisecond}
	err := Do(context.Background(), cfg, nil, func(ctx context.Context) error {
		attempts++
		if attempts <= 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() returned error = %v, want nil", err)
	}
	want := []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("Do() slept %d times, want %d", len(*delays), len(want))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("delay %d = %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestDo_Exhausted(t *testing.T) {
	captureSleeps(t)

	attempts := 0
	tempErr := errors.New("temporary")
	cfg := Config{Retries: 3, BaseDelay: time.Millisecond}
	err := Do(context.Background(), cfg, nil, func(ctx context.Context) error {
		attempts++
		return tempErr
	})
	if err == nil {
		t.Fatal("Do() returned nil, want error")
	}
	if !errors.Is(err, tempErr) {
		t.Errorf("Do() error = %v, want wrapped %v", err, tempErr)
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("Do() error = %T, want *ExhaustedError", err)
	}
	if ex.Attempts != 4 {
		t.Errorf("ExhaustedError.Attempts = %d, want 4", ex.Attempts)
	}
	if attempts != 4 {
		t.Errorf("Do() made %d attempts, want 4", attempts)
	}
}

func TestDo_PermanentError(t *testing.T) {
	captureSleeps(t)

	attempts := 0
	permErr := Permanent(errors.New("definitive"))
	err := Do(context.Background(), DefaultConfig(), RetryTransient, func(ctx context.Context) error {
		attempts++
		return permErr
	})
	if !errors.Is(err, permErr) {
		t.Errorf("Do() error = %v, want %v", err, permErr)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	cfg := Config{Retries: 5, BaseDelay: time.Minute}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, cfg, nil, func(ctx context.Context) error {
		attempts++
		return errors.New("temporary")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestRetryTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"generic error", errors.New("boom"), true},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"permanent", Permanent(errors.New("gone")), false},
		{"wrapped permanent", errors.Join(errors.New("outer"), Permanent(errors.New("gone"))), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryTransient(tt.err); got != tt.want {
				t.Errorf("RetryTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Retries != 5 {
		t.Errorf("DefaultConfig().Retries = %d, want 5", cfg.Retries)
	}
	if cfg.BaseDelay != 500*time.Millisecond {
		t.Errorf("DefaultConfig().BaseDelay = %v, want 500ms", cfg.BaseDelay)
	}
}

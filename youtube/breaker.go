package youtube

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// BreakerState is the state of the API circuit breaker.
type BreakerState int

const (
	// BreakerClosed is the normal state where requests are allowed.
	BreakerClosed BreakerState = iota
	// BreakerOpen is the state where requests fail fast.
	BreakerOpen
	// BreakerHalfOpen is the testing state where one probe request is allowed.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned when the circuit breaker is failing fast.
var ErrBreakerOpen = errors.New("youtube: circuit breaker is open")

// BreakerConfig configures the circuit breaker guarding API calls.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transient failures
	// before the circuit opens. Default: 5
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before a single
	// probe request is let through. Default: 30 seconds
	RecoveryTimeout time.Duration
}

// DefaultBreakerConfig returns the default circuit breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

// Breaker trips after consecutive transient API failures so that a
// quota-exhausted or unreachable API fails fast instead of burning the
// retry budget on every call. Client errors do not affect the circuit.
type Breaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
	log      zerolog.Logger
}

func newBreaker(cfg BreakerConfig, log zerolog.Logger) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultBreakerConfig().RecoveryTimeout
	}
	return &Breaker{cfg: cfg, now: time.Now, log: log}
}

// Allow reports whether a request may proceed. In the open state it
// returns ErrBreakerOpen until the recovery timeout elapses, then admits
// a single probe.
func (b *Breaker) Allow() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cfg.RecoveryTimeout {
			return ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
		b.probing = true
		b.log.Info().Msg("circuit breaker half-open, probing")
		return nil
	case BreakerHalfOpen:
		if b.probing {
			return ErrBreakerOpen
		}
		b.probing = true
		return nil
	}
	return nil
}

// Record updates the circuit from a request outcome. Success closes the
// circuit; a transient failure counts toward the threshold; other errors
// leave the state untouched.
func (b *Breaker) Record(err error) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != BreakerClosed {
			b.log.Info().Str("from", b.state.String()).Msg("circuit breaker closed")
		}
		b.state = BreakerClosed
		b.failures = 0
		b.probing = false
		return
	}

	if !transient(err) {
		// A client error says nothing about API health. In half-open it
		// still ends the probe so the next caller may try again.
		b.probing = false
		return
	}

	b.failures++
	switch b.state {
	case BreakerClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.open()
		}
	case BreakerHalfOpen:
		b.open()
	}
}

func (b *Breaker) open() {
	b.state = BreakerOpen
	b.openedAt = b.now()
	b.probing = false
	b.log.Warn().Int("failures", b.failures).
		Dur("recovery", b.cfg.RecoveryTimeout).Msg("circuit breaker opened")
}

// State returns the current circuit state.
func (b *Breaker) State() BreakerState {
	if b == nil {
		return BreakerClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.cfg.RecoveryTimeout {
		return BreakerHalfOpen
	}
	return b.state
}

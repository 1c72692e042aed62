// Package bulk runs a mutation across many items sequentially, pacing
// calls to stay under API quota and collecting per-item failures instead
// of aborting on the first one.
package bulk

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/kuil09/youtube-subscriptions-backup/retry"
)

// DefaultInterval is the pause between consecutive mutations.
const DefaultInterval = 100 * time.Millisecond

// Failure records one item that could not be mutated.
type Failure struct {
	// ID is the item the mutation was applied to.
	ID string `json:"id"`
	// Error is the failure message.
	Error string `json:"error"`
}

// Result summarizes a bulk run. A run with failures is not an error:
// callers inspect Failures to report partial completion.
type Result struct {
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Failed returns the number of items that did not succeed.
func (r Result) Failed() int { return len(r.Failures) }

// Runner applies mutations with pacing and per-item retries.
type Runner struct {
	limiter    *rate.Limiter
	retry      retry.Config
	classifier retry.Classifier
	log        zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithInterval sets the minimum spacing between mutations.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRetryConfig sets the per-item retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(r *Runner) { r.retry = cfg }
}

// WithClassifier sets the retry classifier for per-item failures.
func WithClassifier(c retry.Classifier) Option {
	return func(r *Runner) { r.classifier = c }
}

// WithLogger sets the runner logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// NewRunner creates a Runner pacing one mutation per DefaultInterval.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		limiter:    rate.NewLimiter(rate.Every(DefaultInterval), 1),
		retry:      retry.Config{Retries: 2, BaseDelay: 250 * time.Millisecond},
		classifier: retry.RetryTransient,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ApplyToAll runs mutate over ids in order, one at a time. Item failures
// are collected and the run continues; only context cancellation aborts
// it, returning the partial result alongside the context error.
func (r *Runner) ApplyToAll(ctx context.Context, ids []string, mutate func(ctx context.Context, id string) error) (Result, error) {
	res := Result{}
	for _, id := range ids {
		if err := r.limiter.Wait(ctx); err != nil {
			return res, err
		}
		res.Attempted++

		err := retry.Do(ctx, r.retry, r.classifier, func(ctx context.Context) error {
			return mutate(ctx, id)
		})
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			r.log.Warn().Str("id", id).Err(err).Msg("bulk mutation failed")
			res.Failures = append(res.Failures, Failure{ID: id, Error: err.Error()})
			continue
		}
		res.Succeeded++
	}
	return res, nil
}

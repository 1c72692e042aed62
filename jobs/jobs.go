// Package jobs is a durable job queue persisted through a storage.JobStore.
// Jobs survive restarts: every status transition is written back before the
// queue moves on.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kuil09/youtube-subscriptions-backup/retry"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
)

// Processor handles one job payload. A nil error marks the job done.
type Processor func(ctx context.Context, payload json.RawMessage) error

// Options tunes queue behavior. The zero value is replaced by defaults.
type Options struct {
	// MaxAttempts is how many runs a job gets before it is marked failed.
	MaxAttempts int
	// SuccessDelay is the pause after a completed job.
	SuccessDelay time.Duration
	// FailureDelay is the pause after a failed run.
	FailureDelay time.Duration
	// Retry is the in-run retry policy around the processor.
	Retry retry.Config
}

// DefaultOptions returns the stock queue policy.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:  5,
		SuccessDelay: 50 * time.Millisecond,
		FailureDelay: 200 * time.Millisecond,
		Retry:        retry.Config{Retries: 2, BaseDelay: 500 * time.Millisecond},
	}
}

// Summary reports what one Run pass did.
type Summary struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Retried counts jobs left pending for a later pass.
	Retried int `json:"retried"`
}

// pauseFunc sleeps between jobs; tests replace it.
var pauseFunc = func(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Queue runs persisted jobs by type through registered processors.
type Queue struct {
	store storage.JobStore
	opts  Options
	log   zerolog.Logger
	now   func() time.Time

	mu    sync.Mutex
	procs map[string]Processor
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithLogger sets the queue logger.
func WithLogger(log zerolog.Logger) QueueOption {
	return func(q *Queue) { q.log = log }
}

// WithClock overrides the queue clock.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// NewQueue creates a queue over the given store. Zero fields of opts fall
// back to DefaultOptions.
func NewQueue(store storage.JobStore, opts Options, qopts ...QueueOption) *Queue {
	def := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	// Zero delays mean "use defaults"; pass a negative to disable pacing.
	if opts.SuccessDelay == 0 {
		opts.SuccessDelay = def.SuccessDelay
	}
	if opts.FailureDelay == 0 {
		opts.FailureDelay = def.FailureDelay
	}
	if opts.Retry.Retries == 0 && opts.Retry.BaseDelay == 0 {
		opts.Retry = def.Retry
	}
	q := &Queue{
		store: store,
		opts:  opts,
		log:   zerolog.Nop(),
		now:   time.Now,
		procs: make(map[string]Processor),
	}
	for _, o := range qopts {
		o(q)
	}
	return q
}

// Register binds a processor to a job type, replacing any previous one.
func (q *Queue) Register(jobType string, p Processor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.procs[jobType] = p
}

func (q *Queue) processor(jobType string) (Processor, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.procs[jobType]
	return p, ok
}

// newJobID builds IDs like "export:1717245000123:9f2c41". The random
// suffix disambiguates jobs enqueued within the same millisecond.
func (q *Queue) newJobID(jobType string) string {
	return fmt.Sprintf("%s:%d:%s", jobType, q.now().UnixMilli(), uuid.NewString()[:6])
}

// Enqueue appends one pending job and persists the queue.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload json.RawMessage) (storage.Job, error) {
	jobs, err := q.EnqueueAll(ctx, jobType, []json.RawMessage{payload})
	if err != nil {
		return storage.Job{}, err
	}
	return jobs[0], nil
}

// EnqueueAll appends one pending job per payload, persisting the queue
// once for the whole batch.
func (q *Queue) EnqueueAll(ctx context.Context, jobType string, payloads []json.RawMessage) ([]storage.Job, error) {
	if jobType == "" {
		return nil, fmt.Errorf("job type required: %w", storage.ErrInvalidInput)
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("at least one payload required: %w", storage.ErrInvalidInput)
	}

	jobs := make([]storage.Job, len(payloads))
	for i, payload := range payloads {
		jobs[i] = storage.Job{
			ID:      q.newJobID(jobType),
			Type:    jobType,
			Payload: payload,
			Status:  storage.JobPending,
		}
	}

	all, err := q.store.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	all = append(all, jobs...)
	if err := q.store.SaveJobs(ctx, all); err != nil {
		return nil, err
	}
	q.log.Debug().Str("type", jobType).Int("count", len(jobs)).Msg("enqueued")
	return jobs, nil
}

// Pending returns the jobs still waiting to run, in enqueue order.
func (q *Queue) Pending(ctx context.Context) ([]storage.Job, error) {
	all, err := q.store.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	var pending []storage.Job
	for _, j := range all {
		if j.Status == storage.JobPending {
			pending = append(pending, j)
		}
	}
	return pending, nil
}

// Run makes one pass over pending jobs in FIFO order. Each job gets one
// attempt (with in-run retries); a job that still fails stays pending
// until its attempt budget is spent, then turns failed. The queue is
// persisted after every transition.
func (q *Queue) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	snapshot, err := q.Pending(ctx)
	if err != nil {
		return sum, err
	}

	for _, job := range snapshot {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		sum.Processed++

		proc, ok := q.processor(job.Type)
		if !ok {
			job.Status = storage.JobFailed
			job.LastError = "No processor"
			if err := q.persist(ctx, job); err != nil {
				return sum, err
			}
			sum.Failed++
			q.log.Warn().Str("job", job.ID).Str("type", job.Type).Msg("no processor registered")
			pauseFunc(ctx, q.opts.FailureDelay)
			continue
		}

		job.Attempts++
		runErr := retry.Do(ctx, q.opts.Retry, retry.RetryTransient, func(ctx context.Context) error {
			return proc(ctx, job.Payload)
		})
		if runErr != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			job.LastError = runErr.Error()
			if job.Attempts >= q.opts.MaxAttempts {
				job.Status = storage.JobFailed
				sum.Failed++
			} else {
				sum.Retried++
			}
			if err := q.persist(ctx, job); err != nil {
				return sum, err
			}
			q.log.Warn().Str("job", job.ID).Int("attempts", job.Attempts).Err(runErr).Msg("job run failed")
			pauseFunc(ctx, q.opts.FailureDelay)
			continue
		}

		job.Status = storage.JobDone
		job.LastError = ""
		if err := q.persist(ctx, job); err != nil {
			return sum, err
		}
		sum.Succeeded++
		q.log.Debug().Str("job", job.ID).Msg("job done")
		pauseFunc(ctx, q.opts.SuccessDelay)
	}
	return sum, nil
}

// persist writes one job's new state back into the stored queue.
func (q *Queue) persist(ctx context.Context, job storage.Job) error {
	all, err := q.store.Jobs(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == job.ID {
			all[i] = job
			break
		}
	}
	return q.store.SaveJobs(ctx, all)
}

// ClearCompleted drops done and failed jobs, keeping only pending ones.
// It returns how many jobs were removed.
func (q *Queue) ClearCompleted(ctx context.Context) (int, error) {
	all, err := q.store.Jobs(ctx)
	if err != nil {
		return 0, err
	}
	kept := all[:0]
	for _, j := range all {
		if j.Status == storage.JobPending {
			kept = append(kept, j)
		}
	}
	removed := len(all) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := q.store.SaveJobs(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

package service

import (
	"context"
	"encoding/json"

	"github.com/kuil09/youtube-subscriptions-backup/jobs"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
)

// Job types the service knows how to process.
const (
	JobRefreshWatchLater = "watchlater.refresh"
	JobUnsubscribe       = "subscriptions.unsubscribe"
	JobExportLogs        = "logs.export"
)

// registerProcessors binds the service's job types to their handlers.
func (s *Service) registerProcessors() {
	if s.queue == nil {
		return
	}
	s.queue.Register(JobRefreshWatchLater, func(ctx context.Context, payload json.RawMessage) error {
		_, err := s.RefreshWatchLater(ctx)
		return err
	})
	s.queue.Register(JobUnsubscribe, func(ctx context.Context, payload json.RawMessage) error {
		var p struct {
			SubscriptionIDs []string `json:"subscriptionIds"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		_, err := s.BulkUnsubscribe(ctx, p.SubscriptionIDs)
		return err
	})
	s.queue.Register(JobExportLogs, func(ctx context.Context, payload json.RawMessage) error {
		_, err := s.ExportLogs(ctx)
		return err
	})
}

// EnqueueJob adds a job for a later Run pass.
func (s *Service) EnqueueJob(ctx context.Context, jobType string, payload json.RawMessage) (storage.Job, error) {
	return s.queue.Enqueue(ctx, jobType, payload)
}

// EnqueueJobs adds one job per payload in a single persisted batch.
func (s *Service) EnqueueJobs(ctx context.Context, jobType string, payloads []json.RawMessage) ([]storage.Job, error) {
	return s.queue.EnqueueAll(ctx, jobType, payloads)
}

// RunJobs makes one pass over pending jobs.
func (s *Service) RunJobs(ctx context.Context) (jobs.Summary, error) {
	sum, err := s.queue.Run(ctx)
	if err != nil {
		return sum, err
	}
	s.logAction(ctx, "jobs_run", sum)
	return sum, nil
}

// PendingJobs lists jobs still waiting to run.
func (s *Service) PendingJobs(ctx context.Context) ([]storage.Job, error) {
	return s.queue.Pending(ctx)
}

// Jobs lists every job regardless of status.
func (s *Service) Jobs(ctx context.Context) ([]storage.Job, error) {
	return s.store.Jobs(ctx)
}

// ClearJobs drops completed and failed jobs from the queue.
func (s *Service) ClearJobs(ctx context.Context) (int, error) {
	removed, err := s.queue.ClearCompleted(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logAction(ctx, "jobs_cleared", map[string]int{"removed": removed})
	}
	return removed, nil
}

package service

import (
	"bytes"
	"context"
	"errors"

	"github.com/kuil09/youtube-subscriptions-backup/export"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
	"github.com/kuil09/youtube-subscriptions-backup/youtube"
)

// Logs returns the action log, newest last.
func (s *Service) Logs(ctx context.Context) ([]storage.ActionLog, error) {
	return s.store.Logs(ctx)
}

// ExportLogs encodes the action log as JSON.
func (s *Service) ExportLogs(ctx context.Context) ([]byte, error) {
	logs, err := s.store.Logs(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.LogsJSON(&buf, logs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ClearLogs empties the action log.
func (s *Service) ClearLogs(ctx context.Context) error {
	return s.store.ClearLogs(ctx)
}

// ExportWatchLater encodes the stored snapshot in the requested format.
func (s *Service) ExportWatchLater(ctx context.Context, format string) ([]byte, error) {
	snapshot, err := s.store.WatchLater(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch format {
	case "csv":
		err = export.WatchLaterCSV(&buf, snapshot.Items)
	default:
		err = export.WatchLaterJSON(&buf, snapshot.Items)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stats summarizes account and local state for a dashboard view.
type Stats struct {
	Subscriptions int  `json:"subscriptions"`
	WatchLater    int  `json:"watchLater"`
	SnapshotTaken bool `json:"snapshotTaken"`
	PendingJobs   int  `json:"pendingJobs"`
	FailedJobs    int  `json:"failedJobs"`
	LogEntries    int  `json:"logEntries"`
}

// Stats gathers counters from the remote API and the local store.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	subs, err := s.api.ListSubscriptions(ctx)
	if err != nil {
		return st, err
	}
	st.Subscriptions = len(subs)

	count, err := s.api.CountPlaylistItems(ctx, youtube.WatchLaterPlaylistID)
	if err != nil {
		return st, err
	}
	st.WatchLater = count

	if _, err := s.store.WatchLater(ctx); err == nil {
		st.SnapshotTaken = true
	} else if !errors.Is(err, storage.ErrNotFound) {
		return st, err
	}

	jobList, err := s.store.Jobs(ctx)
	if err != nil {
		return st, err
	}
	for _, j := range jobList {
		switch j.Status {
		case storage.JobPending:
			st.PendingJobs++
		case storage.JobFailed:
			st.FailedJobs++
		}
	}

	logs, err := s.store.Logs(ctx)
	if err != nil {
		return st, err
	}
	st.LogEntries = len(logs)
	return st, nil
}

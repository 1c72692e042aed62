package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kuil09/youtube-subscriptions-backup/bulk"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
)

// CachedWatchLater returns the last stored snapshot without remote calls.
// Returns storage.ErrNotFound when no snapshot has been taken yet.
func (s *Service) CachedWatchLater(ctx context.Context) (*storage.WatchLaterSnapshot, error) {
	return s.store.WatchLater(ctx)
}

// RefreshWatchLater fetches the Watch Later playlist, enriches it with
// durations, and replaces the stored snapshot.
func (s *Service) RefreshWatchLater(ctx context.Context) (*storage.WatchLaterSnapshot, error) {
	videos, err := s.api.ListWatchLater(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.api.AnnotateDurations(ctx, videos); err != nil {
		// The listing itself succeeded; store it without durations.
		s.log.Warn().Err(err).Msg("duration enrichment failed")
	}

	snapshot := &storage.WatchLaterSnapshot{
		Items:     make([]storage.WatchLaterItem, len(videos)),
		FetchedAt: s.now().UTC(),
	}
	for i, v := range videos {
		snapshot.Items[i] = storage.WatchLaterItem{
			PlaylistItemID: v.PlaylistItemID,
			VideoID:        v.VideoID,
			Title:          v.Title,
			ChannelName:    v.ChannelTitle,
			DurationText:   v.Duration,
			PublishedAt:    v.PublishedAt,
			AddedAt:        v.AddedAt,
		}
	}
	if err := s.store.SaveWatchLater(ctx, snapshot); err != nil {
		return nil, err
	}
	s.logAction(ctx, "watch_later_refreshed", map[string]any{"count": len(snapshot.Items)})
	return snapshot, nil
}

// ClearWatchLater removes every item in the snapshot from the remote
// playlist, refreshing first when no snapshot exists. The snapshot is
// refreshed again afterwards so local state reflects the remote result.
func (s *Service) ClearWatchLater(ctx context.Context) (bulk.Result, error) {
	snapshot, err := s.store.WatchLater(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		snapshot, err = s.RefreshWatchLater(ctx)
	}
	if err != nil {
		return bulk.Result{}, err
	}

	ids := make([]string, len(snapshot.Items))
	for i, item := range snapshot.Items {
		ids[i] = item.PlaylistItemID
	}

	res, err := s.runner.ApplyToAll(ctx, ids, func(ctx context.Context, id string) error {
		return s.api.DeletePlaylistItem(ctx, id)
	})
	if err != nil {
		return res, err
	}
	s.logAction(ctx, "watch_later_cleared", res)

	if _, err := s.RefreshWatchLater(ctx); err != nil {
		s.log.Warn().Err(err).Msg("post-clear snapshot refresh failed")
	}
	return res, nil
}

// MoveVideo adds a watch-later video to the target playlist, then removes
// it from Watch Later. When playlistItemID is empty it is resolved from
// the stored snapshot by video ID.
func (s *Service) MoveVideo(ctx context.Context, videoID, playlistItemID, targetPlaylistID string) error {
	if videoID == "" || targetPlaylistID == "" {
		return fmt.Errorf("video id and target playlist id required: %w", storage.ErrInvalidInput)
	}

	if playlistItemID == "" {
		snapshot, err := s.store.WatchLater(ctx)
		if err != nil {
			return fmt.Errorf("resolve playlist item for %s: %w", videoID, err)
		}
		for _, item := range snapshot.Items {
			if item.VideoID == videoID {
				playlistItemID = item.PlaylistItemID
				break
			}
		}
		if playlistItemID == "" {
			return fmt.Errorf("video %s not in the watch-later snapshot: %w", videoID, storage.ErrNotFound)
		}
	}

	// Insert before delete: a failed insert leaves the video where it was.
	if _, err := s.api.InsertPlaylistItem(ctx, targetPlaylistID, videoID); err != nil {
		return err
	}
	if err := s.api.DeletePlaylistItem(ctx, playlistItemID); err != nil {
		return err
	}
	s.logAction(ctx, "video_moved", map[string]string{
		"videoId":  videoID,
		"playlist": targetPlaylistID,
	})
	return nil
}

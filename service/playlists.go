package service

import (
	"context"

	"github.com/kuil09/youtube-subscriptions-backup/classify"
	"github.com/kuil09/youtube-subscriptions-backup/youtube"
)

// ListPlaylists fetches the account's playlists.
func (s *Service) ListPlaylists(ctx context.Context) ([]youtube.Playlist, error) {
	return s.api.ListPlaylists(ctx)
}

// CreatePlaylist creates a playlist, private by default.
func (s *Service) CreatePlaylist(ctx context.Context, title, description, privacy string) (youtube.Playlist, error) {
	pl, err := s.api.CreatePlaylist(ctx, title, description, privacy)
	if err != nil {
		return youtube.Playlist{}, err
	}
	s.logAction(ctx, "playlist_created", map[string]string{"id": pl.ID, "title": pl.Title})
	return pl, nil
}

// ClassifyVideo suggests a target playlist for a video, preferring ones
// the account already has.
func (s *Service) ClassifyVideo(ctx context.Context, video classify.Video) (classify.Suggestion, error) {
	playlists, err := s.api.ListPlaylists(ctx)
	if err != nil {
		return classify.Suggestion{}, err
	}
	titles := make([]string, len(playlists))
	for i, p := range playlists {
		titles[i] = p.Title
	}
	return s.classifier.Classify(ctx, video, titles)
}

package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// maxPlaylistTitleLength is the Data API limit for playlist titles.
const maxPlaylistTitleLength = 120

type playlistResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
	ContentDetails struct {
		ItemCount int `json:"itemCount"`
	} `json:"contentDetails"`
}

type playlistItemResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title                  string    `json:"title"`
		VideoOwnerChannelTitle string    `json:"videoOwnerChannelTitle"`
		PublishedAt            time.Time `json:"publishedAt"`
		ResourceID             struct {
			VideoID string `json:"videoId"`
		} `json:"resourceId"`
	} `json:"snippet"`
	ContentDetails struct {
		VideoID          string    `json:"videoId"`
		VideoPublishedAt time.Time `json:"videoPublishedAt"`
	} `json:"contentDetails"`
}

func (r playlistItemResource) toVideo() PlaylistVideo {
	videoID := r.ContentDetails.VideoID
	if videoID == "" {
		videoID = r.Snippet.ResourceID.VideoID
	}
	return PlaylistVideo{
		PlaylistItemID: r.ID,
		VideoID:        videoID,
		Title:          r.Snippet.Title,
		ChannelTitle:   r.Snippet.VideoOwnerChannelTitle,
		PublishedAt:    r.ContentDetails.VideoPublishedAt,
		AddedAt:        r.Snippet.PublishedAt,
	}
}

// ListPlaylists fetches every playlist owned by the account.
func (c *Client) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	params := url.Values{
		"part": {"snippet,status,contentDetails"},
		"mine": {"true"},
	}

	var lists []Playlist
	err := c.paginate(ctx, ScopeReadonly, "/playlists", params, func(raw json.RawMessage) error {
		var res playlistResource
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("decode playlist: %w", err)
		}
		lists = append(lists, Playlist{
			ID:          res.ID,
			Title:       res.Snippet.Title,
			Description: res.Snippet.Description,
			ItemCount:   res.ContentDetails.ItemCount,
			Privacy:     res.Status.PrivacyStatus,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}

// CreatePlaylist creates a playlist. Titles longer than the API limit are
// truncated; privacy defaults to "private".
func (c *Client) CreatePlaylist(ctx context.Context, title, description, privacy string) (Playlist, error) {
	if title == "" {
		return Playlist{}, fmt.Errorf("playlist title required")
	}
	if len(title) > maxPlaylistTitleLength {
		title = title[:maxPlaylistTitleLength]
	}
	if privacy == "" {
		privacy = "private"
	}

	snippet := map[string]string{"title": title}
	if description != "" {
		snippet["description"] = description
	}
	body := map[string]any{
		"snippet": snippet,
		"status":  map[string]string{"privacyStatus": privacy},
	}
	params := url.Values{"part": {"snippet,status"}}

	var res playlistResource
	if err := c.call(ctx, ScopeManage, http.MethodPost, "/playlists", params, body, &res); err != nil {
		return Playlist{}, err
	}
	return Playlist{
		ID:          res.ID,
		Title:       res.Snippet.Title,
		Description: res.Snippet.Description,
		Privacy:     res.Status.PrivacyStatus,
	}, nil
}

// ListPlaylistItems fetches every entry of the given playlist in playlist
// order.
func (c *Client) ListPlaylistItems(ctx context.Context, playlistID string) ([]PlaylistVideo, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("playlist id required")
	}
	params := url.Values{
		"part":       {"snippet,contentDetails"},
		"playlistId": {playlistID},
	}

	var items []PlaylistVideo
	err := c.paginate(ctx, ScopeReadonly, "/playlistItems", params, func(raw json.RawMessage) error {
		var res playlistItemResource
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("decode playlist item: %w", err)
		}
		items = append(items, res.toVideo())
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("playlist", playlistID).Int("count", len(items)).Msg("listed playlist items")
	return items, nil
}

// ListWatchLater fetches the account's Watch Later playlist.
func (c *Client) ListWatchLater(ctx context.Context) ([]PlaylistVideo, error) {
	return c.ListPlaylistItems(ctx, WatchLaterPlaylistID)
}

// CountPlaylistItems returns the playlist size without walking its pages.
func (c *Client) CountPlaylistItems(ctx context.Context, playlistID string) (int, error) {
	if playlistID == "" {
		return 0, fmt.Errorf("playlist id required")
	}
	params := url.Values{
		"part":       {"id"},
		"playlistId": {playlistID},
		"maxResults": {"1"},
	}
	var page listEnvelope
	if err := c.call(ctx, ScopeReadonly, http.MethodGet, "/playlistItems", params, nil, &page); err != nil {
		return 0, err
	}
	return page.PageInfo.TotalResults, nil
}

// InsertPlaylistItem appends a video to a playlist and returns the new
// playlist item ID.
func (c *Client) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) (string, error) {
	if playlistID == "" || videoID == "" {
		return "", fmt.Errorf("playlist id and video id required")
	}
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": map[string]string{
				"kind":    "youtube#video",
				"videoId": videoID,
			},
		},
	}
	params := url.Values{"part": {"snippet"}}

	var res playlistItemResource
	if err := c.call(ctx, ScopeManage, http.MethodPost, "/playlistItems", params, body, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

// DeletePlaylistItem removes an entry from a playlist by its playlist
// item ID.
func (c *Client) DeletePlaylistItem(ctx context.Context, playlistItemID string) error {
	if playlistItemID == "" {
		return fmt.Errorf("playlist item id required")
	}
	params := url.Values{"id": {playlistItemID}}
	return c.call(ctx, ScopeManage, http.MethodDelete, "/playlistItems", params, nil, nil)
}

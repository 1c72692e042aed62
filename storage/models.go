package storage

import (
	"encoding/json"
	"time"
)

// Credential is the cached OAuth bearer credential. There is exactly one per
// store; it is usable only while unexpired (with margin) and while its
// granted scopes cover the requested ones.
type Credential struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
	Scopes      []string  `json:"scopes"`
}

// Job statuses.
const (
	JobPending = "pending"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job is one unit of deferred bulk work. The queue is an ordered sequence
// persisted after every status change so interrupted runs resume.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Status    string          `json:"status"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
}

// ActionLog is one entry of the capped audit trail of user-visible actions.
type ActionLog struct {
	At     time.Time       `json:"at"`
	Type   string          `json:"type"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

// WatchLaterItem is the stored projection of a watch-later video.
type WatchLaterItem struct {
	PlaylistItemID string    `json:"playlist_item_id"` // needed for playlistItems.delete
	VideoID        string    `json:"video_id"`
	Title          string    `json:"title"`
	ChannelName    string    `json:"channel_name,omitempty"`
	DurationText   string    `json:"duration_text,omitempty"`
	PublishedAt    time.Time `json:"published_at,omitempty"`
	AddedAt        time.Time `json:"added_at,omitempty"` // when added to Watch Later
}

// WatchLaterSnapshot is the last fetched watch-later listing.
type WatchLaterSnapshot struct {
	Items     []WatchLaterItem `json:"items"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Settings is the saved user configuration.
type Settings struct {
	OAuthClientID string `json:"oauth_client_id"`
	Language      string `json:"language,omitempty"`
}

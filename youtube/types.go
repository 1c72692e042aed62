package youtube

import "time"

// Subscription is a channel the account is subscribed to.
type Subscription struct {
	// ID is the subscription resource ID, needed to unsubscribe.
	ID string `json:"id"`
	// ChannelID identifies the subscribed channel.
	ChannelID string `json:"channelId"`
	// Title is the channel title.
	Title string `json:"title"`
	// Description is the channel description.
	Description string `json:"description"`
	// SubscribedAt is when the subscription was created.
	SubscribedAt time.Time `json:"subscribedAt"`
}

// PlaylistVideo is one entry of a playlist.
type PlaylistVideo struct {
	// PlaylistItemID is the playlist membership ID, needed for removal.
	PlaylistItemID string `json:"playlistItemId"`
	// VideoID identifies the video itself.
	VideoID string `json:"videoId"`
	// Title is the video title.
	Title string `json:"title"`
	// ChannelTitle is the uploading channel's title.
	ChannelTitle string `json:"channelTitle"`
	// Duration is the formatted video length ("4:05", "1:02:03"), filled
	// by FetchDurations. Empty when unknown.
	Duration string `json:"duration,omitempty"`
	// PublishedAt is when the video was published.
	PublishedAt time.Time `json:"publishedAt"`
	// AddedAt is when the video was added to the playlist.
	AddedAt time.Time `json:"addedAt"`
}

// Playlist is a playlist the account owns.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ItemCount   int    `json:"itemCount"`
	Privacy     string `json:"privacy"`
}

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kuil09/youtube-subscriptions-backup/storage"
	"github.com/kuil09/youtube-subscriptions-backup/youtube"
)

// FormatVersion is the schema version stamped into JSON exports.
const FormatVersion = 1

// subscriptionHeaders is the CSV column order for subscription exports.
var subscriptionHeaders = []string{"channelId", "channelTitle", "subscriptionId", "subscribedAt"}

// SubscriptionsCSV writes subscriptions as CSV.
func SubscriptionsCSV(w io.Writer, subs []youtube.Subscription) error {
	rows := make([][]string, len(subs))
	for i, s := range subs {
		subscribedAt := ""
		if !s.SubscribedAt.IsZero() {
			subscribedAt = s.SubscribedAt.UTC().Format(time.RFC3339)
		}
		rows[i] = []string{s.ChannelID, s.Title, s.ID, subscribedAt}
	}
	return WriteCSV(w, subscriptionHeaders, rows)
}

// SubscriptionsFile is the JSON export envelope for subscriptions.
type SubscriptionsFile struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exportedAt"`
	Items      []SubscriptionItem `json:"items"`
}

// SubscriptionItem is one exported subscription.
type SubscriptionItem struct {
	ChannelID      string `json:"channelId"`
	ChannelTitle   string `json:"channelTitle,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

// SubscriptionsJSON writes subscriptions as a versioned JSON document.
func SubscriptionsJSON(w io.Writer, subs []youtube.Subscription, exportedAt time.Time) error {
	file := SubscriptionsFile{
		Version:    FormatVersion,
		ExportedAt: exportedAt.UTC(),
		Items:      make([]SubscriptionItem, len(subs)),
	}
	for i, s := range subs {
		file.Items[i] = SubscriptionItem{
			ChannelID:      s.ChannelID,
			ChannelTitle:   s.Title,
			SubscriptionID: s.ID,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode subscriptions export: %w", err)
	}
	return nil
}

// watchLaterHeaders is the CSV column order for watch-later exports.
var watchLaterHeaders = []string{"videoId", "title", "channel", "duration", "publishedAt", "addedAt"}

// WatchLaterCSV writes a watch-later snapshot as CSV.
func WatchLaterCSV(w io.Writer, items []storage.WatchLaterItem) error {
	rows := make([][]string, len(items))
	for i, it := range items {
		publishedAt, addedAt := "", ""
		if !it.PublishedAt.IsZero() {
			publishedAt = it.PublishedAt.UTC().Format(time.RFC3339)
		}
		if !it.AddedAt.IsZero() {
			addedAt = it.AddedAt.UTC().Format(time.RFC3339)
		}
		rows[i] = []string{it.VideoID, it.Title, it.ChannelName, it.DurationText, publishedAt, addedAt}
	}
	return WriteCSV(w, watchLaterHeaders, rows)
}

// WatchLaterJSON writes a watch-later snapshot as a plain JSON array.
func WatchLaterJSON(w io.Writer, items []storage.WatchLaterItem) error {
	if items == nil {
		items = []storage.WatchLaterItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode watch-later export: %w", err)
	}
	return nil
}

// LogsJSON writes action log entries as a plain JSON array.
func LogsJSON(w io.Writer, logs []storage.ActionLog) error {
	if logs == nil {
		logs = []storage.ActionLog{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(logs); err != nil {
		return fmt.Errorf("encode log export: %w", err)
	}
	return nil
}

package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// durationBatchSize is the maximum number of video IDs per videos.list call.
const durationBatchSize = 50

var isoDurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

type videoResource struct {
	ID             string `json:"id"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

// FetchDurations queries durations for the given video IDs in batches of
// fifty and returns formatted values keyed by video ID. IDs the API does
// not return (deleted or private videos) are absent from the result.
func (c *Client) FetchDurations(ctx context.Context, videoIDs []string) (map[string]string, error) {
	durations := make(map[string]string, len(videoIDs))
	for start := 0; start < len(videoIDs); start += durationBatchSize {
		end := start + durationBatchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		params := url.Values{
			"part": {"contentDetails"},
			"id":   {strings.Join(videoIDs[start:end], ",")},
		}

		var page struct {
			Items []videoResource `json:"items"`
		}
		if err := c.call(ctx, ScopeReadonly, http.MethodGet, "/videos", params, nil, &page); err != nil {
			return nil, err
		}
		for _, v := range page.Items {
			if text, ok := FormatISODuration(v.ContentDetails.Duration); ok {
				durations[v.ID] = text
			}
		}
	}
	return durations, nil
}

// AnnotateDurations fills the Duration field of items in place, preserving
// order. Items whose duration could not be fetched are left untouched.
func (c *Client) AnnotateDurations(ctx context.Context, items []PlaylistVideo) error {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.VideoID != "" {
			ids = append(ids, it.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	durations, err := c.FetchDurations(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		if text, ok := durations[items[i].VideoID]; ok {
			items[i].Duration = text
		}
	}
	return nil
}

// FormatISODuration converts an ISO 8601 duration like "PT1H2M3S" to a
// human-readable "1:02:03" (or "4:05" under an hour). The second return
// is false when the input does not parse.
func FormatISODuration(iso string) (string, bool) {
	m := isoDurationRegex.FindStringSubmatch(iso)
	if m == nil {
		return "", false
	}
	hours := atoiDefault(m[1])
	minutes := atoiDefault(m[2])
	seconds := atoiDefault(m[3])

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds), true
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds), true
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

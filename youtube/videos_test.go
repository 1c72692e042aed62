package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestFormatISODuration(t *testing.T) {
	tests := []struct {
		iso  string
		want string
		ok   bool
	}{
		{"PT4M5S", "4:05", true},
		{"PT1H2M3S", "1:02:03", true},
		{"PT30S", "0:30", true},
		{"PT1H", "1:00:00", true},
		{"PT15M", "15:00", true},
		{"PT0S", "0:00", true},
		{"PT10H0M1S", "10:00:01", true},
		{"P1DT2H", "", false},
		{"4:05", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.iso, func(t *testing.T) {
			got, ok := FormatISODuration(tt.iso)
			if ok != tt.ok || got != tt.want {
				t.Errorf("FormatISODuration(%q) = %q, %v; want %q, %v", tt.iso, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFetchDurations_BatchesOfFifty(t *testing.T) {
	var batches [][]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("id"), ",")
		batches = append(batches, ids)
		var items []string
		for _, id := range ids {
			items = append(items, fmt.Sprintf(`{"id":%q,"contentDetails":{"duration":"PT2M10S"}}`, id))
		}
		fmt.Fprint(w, `{"items":[`+strings.Join(items, ",")+`]}`)
	})
	c, _ := newTestClient(t, handler)

	ids := make([]string, 107)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid-%03d", i)
	}
	durations, err := c.FetchDurations(context.Background(), ids)
	if err != nil {
		t.Fatalf("FetchDurations() error = %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("made %d requests, want 3", len(batches))
	}
	if len(batches[0]) != 50 || len(batches[1]) != 50 || len(batches[2]) != 7 {
		t.Errorf("batch sizes = %d/%d/%d, want 50/50/7", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if len(durations) != 107 {
		t.Errorf("got %d durations, want 107", len(durations))
	}
	if durations["vid-000"] != "2:10" {
		t.Errorf(`durations["vid-000"] = %q, want "2:10"`, durations["vid-000"])
	}
}

func TestAnnotateDurations_PreservesOrderAndSkipsMissing(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the first video is known to the API.
		fmt.Fprint(w, `{"items":[{"id":"v1","contentDetails":{"duration":"PT1M"}}]}`)
	})
	c, _ := newTestClient(t, handler)

	items := []PlaylistVideo{
		{PlaylistItemID: "pi1", VideoID: "v1", Title: "First"},
		{PlaylistItemID: "pi2", VideoID: "v2", Title: "Deleted video"},
	}
	if err := c.AnnotateDurations(context.Background(), items); err != nil {
		t.Fatalf("AnnotateDurations() error = %v", err)
	}
	if items[0].Duration != "1:00" {
		t.Errorf("items[0].Duration = %q, want 1:00", items[0].Duration)
	}
	if items[1].Duration != "" {
		t.Errorf("items[1].Duration = %q, want empty for unknown video", items[1].Duration)
	}
	if items[0].PlaylistItemID != "pi1" || items[1].PlaylistItemID != "pi2" {
		t.Error("item order changed")
	}
}

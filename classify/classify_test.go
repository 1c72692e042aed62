package classify

import (
	"context"
	"testing"
)

func TestHeuristicClassify_Rules(t *testing.T) {
	h := NewHeuristicClassifier()

	tests := []struct {
		name       string
		video      Video
		want       string
		confidence float64
	}{
		{"music by title", Video{Title: "Artist - Song (Official Video)"}, "Music", matchConfidence},
		{"gaming", Video{Title: "Elden Ring full playthrough part 3"}, "Gaming", matchConfidence},
		{"learning", Video{Title: "How to solder properly"}, "Learning", matchConfidence},
		{"cooking", Video{Title: "Weeknight pasta recipe"}, "Cooking", matchConfidence},
		{"channel contributes", Video{Title: "Episode 12", Channel: "The Daily Podcast"}, "Podcasts", matchConfidence},
		{"no match", Video{Title: "asdf qwerty"}, "Uncategorized", fallbackConfidence},
		{"first match wins", Video{Title: "Music video tutorial"}, "Music", matchConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Classify(context.Background(), tt.video, nil)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.Playlist != tt.want || got.Confidence != tt.confidence {
				t.Errorf("Classify() = %+v, want playlist %q confidence %v", got, tt.want, tt.confidence)
			}
			if got.Existing {
				t.Errorf("Classify() with no playlists marked Existing")
			}
		})
	}
}

func TestHeuristicClassify_PrefersExistingPlaylist(t *testing.T) {
	h := NewHeuristicClassifier()
	playlists := []string{"Watch Later Picks", "My Music Favorites", "Old Gaming"}

	got, err := h.Classify(context.Background(), Video{Title: "Band - Track (lyrics)"}, playlists)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !got.Existing || got.Playlist != "My Music Favorites" {
		t.Errorf("Classify() = %+v, want existing playlist My Music Favorites", got)
	}
}

type probedClassifier struct {
	available bool
	name      string
}

func (p *probedClassifier) Available(ctx context.Context) bool { return p.available }

func (p *probedClassifier) Classify(ctx context.Context, v Video, playlists []string) (Suggestion, error) {
	return Suggestion{Playlist: p.name}, nil
}

func TestSelect_ProbesOnceAndFallsBack(t *testing.T) {
	ctx := context.Background()
	fallback := NewHeuristicClassifier()

	offline := &probedClassifier{available: false, name: "provider"}
	if got := Select(ctx, offline, fallback); got != Classifier(fallback) {
		t.Errorf("Select() with unavailable provider = %T, want heuristic fallback", got)
	}

	online := &probedClassifier{available: true, name: "provider"}
	if got := Select(ctx, online, fallback); got != Classifier(online) {
		t.Errorf("Select() with available provider = %T, want the provider", got)
	}
}

// Package classify suggests a target playlist for a video. The heuristic
// rule table is the always-available fallback; richer providers plug in
// through the Classifier interface and are probed once at startup.
package classify

import (
	"context"
	"regexp"
	"strings"
)

// Video is the classification input.
type Video struct {
	Title   string `json:"title"`
	Channel string `json:"channel,omitempty"`
}

// Suggestion is a classification outcome.
type Suggestion struct {
	// Playlist is the suggested target playlist title.
	Playlist string `json:"playlist"`
	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`
	// Existing reports whether Playlist names one of the caller's
	// current playlists rather than a new one to create.
	Existing bool `json:"existing"`
}

// Classifier suggests a playlist for a video given the caller's existing
// playlist titles.
type Classifier interface {
	Classify(ctx context.Context, video Video, playlists []string) (Suggestion, error)
}

// Prober reports whether a classifier can serve requests. Providers that
// depend on external services implement it; the heuristic does not need to.
type Prober interface {
	Available(ctx context.Context) bool
}

// Select picks the first classifier whose probe succeeds, falling back to
// the last one unconditionally. Probing happens once, here, not per call.
func Select(ctx context.Context, candidates ...Classifier) Classifier {
	for _, c := range candidates[:len(candidates)-1] {
		p, ok := c.(Prober)
		if !ok || p.Available(ctx) {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

const (
	// matchConfidence is reported when a rule matches.
	matchConfidence = 0.75
	// fallbackConfidence is reported for the catch-all bucket.
	fallbackConfidence = 0.3
	// fallbackPlaylist is suggested when no rule matches.
	fallbackPlaylist = "Uncategorized"
)

type rule struct {
	pattern  *regexp.Regexp
	category string
}

// defaultRules maps title/channel keywords to category playlists. Order
// matters: the first match wins.
var defaultRules = []rule{
	{regexp.MustCompile(`(?i)\b(official video|music video|mv|lyrics?|cover|remix|feat\.?|ft\.)\b`), "Music"},
	{regexp.MustCompile(`(?i)\b(gameplay|playthrough|walkthrough|speedrun|let'?s play|gaming)\b`), "Gaming"},
	{regexp.MustCompile(`(?i)\b(tutorial|how to|guide|course|lesson|explained|learn)\b`), "Learning"},
	{regexp.MustCompile(`(?i)\b(review|unboxing|benchmark|vs\.?|comparison|hands.?on)\b`), "Tech"},
	{regexp.MustCompile(`(?i)\b(recipe|cooking|baking|kitchen|meal)\b`), "Cooking"},
	{regexp.MustCompile(`(?i)\b(news|breaking|headlines|press conference)\b`), "News"},
	{regexp.MustCompile(`(?i)\b(podcast|interview|talk show|q&a)\b`), "Podcasts"},
	{regexp.MustCompile(`(?i)\b(highlights|full match|full game|vs\b.*\b(fc|united|city)\b|workout|fitness)\b`), "Sports & Fitness"},
	{regexp.MustCompile(`(?i)\b(vlog|travel|day in the life)\b`), "Vlogs"},
	{regexp.MustCompile(`(?i)\b(trailer|teaser|behind the scenes|movie clip)\b`), "Movies & Trailers"},
}

// HeuristicClassifier matches keyword rules against title and channel.
type HeuristicClassifier struct {
	rules []rule
}

// NewHeuristicClassifier returns the stock rule-based classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{rules: defaultRules}
}

// Classify applies the rule table in order. When the matched category (or
// the fallback) corresponds to one of the caller's existing playlists,
// that playlist is preferred over creating a new one.
func (h *HeuristicClassifier) Classify(ctx context.Context, video Video, playlists []string) (Suggestion, error) {
	text := video.Title + " " + video.Channel

	for _, r := range h.rules {
		if !r.pattern.MatchString(text) {
			continue
		}
		if existing, ok := matchPlaylist(playlists, r.category); ok {
			return Suggestion{Playlist: existing, Confidence: matchConfidence, Existing: true}, nil
		}
		return Suggestion{Playlist: r.category, Confidence: matchConfidence}, nil
	}

	if existing, ok := matchPlaylist(playlists, fallbackPlaylist); ok {
		return Suggestion{Playlist: existing, Confidence: fallbackConfidence, Existing: true}, nil
	}
	return Suggestion{Playlist: fallbackPlaylist, Confidence: fallbackConfidence}, nil
}

// matchPlaylist finds an existing playlist whose title contains the
// category, case-insensitively.
func matchPlaylist(playlists []string, category string) (string, bool) {
	needle := strings.ToLower(category)
	for _, p := range playlists {
		if strings.Contains(strings.ToLower(p), needle) {
			return p, true
		}
	}
	return "", false
}

// Package service implements the command surface. Each method is one
// command, returning a typed payload or an error the transport layer
// renders with an optional remediation hint.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/kuil09/youtube-subscriptions-backup/bulk"
	"github.com/kuil09/youtube-subscriptions-backup/classify"
	"github.com/kuil09/youtube-subscriptions-backup/jobs"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
	"github.com/kuil09/youtube-subscriptions-backup/youtube"
)

// importInterval paces subscribe calls during imports, slightly slower
// than other mutations.
const importInterval = 120 * time.Millisecond

// YouTubeAPI is the remote surface the service consumes. *youtube.Client
// implements it; tests substitute fakes.
type YouTubeAPI interface {
	ListSubscriptions(ctx context.Context) ([]youtube.Subscription, error)
	Subscribe(ctx context.Context, channelID string) (youtube.Subscription, error)
	Unsubscribe(ctx context.Context, subscriptionID string) error
	ListPlaylists(ctx context.Context) ([]youtube.Playlist, error)
	CreatePlaylist(ctx context.Context, title, description, privacy string) (youtube.Playlist, error)
	ListWatchLater(ctx context.Context) ([]youtube.PlaylistVideo, error)
	CountPlaylistItems(ctx context.Context, playlistID string) (int, error)
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) (string, error)
	DeletePlaylistItem(ctx context.Context, playlistItemID string) error
	AnnotateDurations(ctx context.Context, items []youtube.PlaylistVideo) error
}

// TokenSource acquires access tokens; *auth.Manager implements it.
type TokenSource interface {
	Token(ctx context.Context, scopes []string) (string, error)
	Invalidate(ctx context.Context) error
}

// Service executes commands against the remote API and local store.
type Service struct {
	store      storage.Store
	api        YouTubeAPI
	tokens     TokenSource
	runner     *bulk.Runner
	importer   *bulk.Runner
	queue      *jobs.Queue
	classifier classify.Classifier
	log        zerolog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRunner replaces the bulk mutation runner.
func WithRunner(r *bulk.Runner) Option {
	return func(s *Service) { s.runner = r }
}

// WithImportRunner replaces the slower runner used for imports.
func WithImportRunner(r *bulk.Runner) Option {
	return func(s *Service) { s.importer = r }
}

// WithClassifier replaces the playlist classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// New creates the service and registers its job processors on queue.
func New(store storage.Store, api YouTubeAPI, tokens TokenSource, queue *jobs.Queue, opts ...Option) *Service {
	s := &Service{
		store:      store,
		api:        api,
		tokens:     tokens,
		runner:     bulk.NewRunner(),
		importer:   bulk.NewRunner(bulk.WithInterval(importInterval)),
		queue:      queue,
		classifier: classify.NewHeuristicClassifier(),
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerProcessors()
	return s
}

// AcquireToken runs the token flow for the requested access level and
// reports the scopes now held.
func (s *Service) AcquireToken(ctx context.Context, manage bool) ([]string, error) {
	scopes := []string{youtube.ScopeReadonly}
	if manage {
		scopes = []string{youtube.ScopeManage}
	}
	if _, err := s.tokens.Token(ctx, scopes); err != nil {
		return nil, err
	}
	s.logAction(ctx, "token_acquired", map[string]any{"scopes": scopes})
	return scopes, nil
}

// SignOut drops the cached credential.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.tokens.Invalidate(ctx); err != nil {
		return err
	}
	s.logAction(ctx, "signed_out", nil)
	return nil
}

// logAction appends to the capped action log. Logging failures are
// reported but never fail the operation they decorate.
func (s *Service) logAction(ctx context.Context, actionType string, detail any) {
	var raw json.RawMessage
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			s.log.Warn().Err(err).Str("action", actionType).Msg("encode action detail")
			return
		}
		raw = b
	}
	entry := storage.ActionLog{At: s.now().UTC(), Type: actionType, Detail: raw}
	if err := s.store.AppendLog(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", actionType).Msg("append action log")
	}
}

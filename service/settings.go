package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kuil09/youtube-subscriptions-backup/storage"
)

// Settings returns the saved user settings, or the zero value when
// nothing has been saved yet.
func (s *Service) Settings(ctx context.Context) (storage.Settings, error) {
	saved, err := s.store.Settings(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Settings{}, nil
		}
		return storage.Settings{}, err
	}
	return *saved, nil
}

// UpdateSettings validates and persists user settings.
func (s *Service) UpdateSettings(ctx context.Context, cfg storage.Settings) (storage.Settings, error) {
	cfg.OAuthClientID = strings.TrimSpace(cfg.OAuthClientID)
	cfg.Language = strings.TrimSpace(cfg.Language)
	if cfg.OAuthClientID == "" {
		return storage.Settings{}, fmt.Errorf("oauth client id required: %w", storage.ErrInvalidInput)
	}

	if err := s.store.SaveSettings(ctx, &cfg); err != nil {
		return storage.Settings{}, err
	}
	s.logAction(ctx, "settings_updated", map[string]string{"language": cfg.Language})
	return cfg, nil
}

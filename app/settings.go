// Package app contains the application services: template catalog sync and
// watching, content resolution, block embedding and site settings.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/contentgate/domain/settings"
	"github.com/artpar/contentgate/ports"
	"github.com/rs/zerolog"
)

// SettingsService provides cached access to site settings.
type SettingsService struct {
	store  ports.SettingsStore
	logger zerolog.Logger
	mu     sync.RWMutex
	cache  settings.Settings
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store ports.SettingsStore, logger zerolog.Logger) *SettingsService {
	return &SettingsService{
		store:  store,
		logger: logger.With().Str("service", "settings").Logger(),
		cache:  settings.Defaults(),
	}
}

// Load loads all settings from the store and merges with defaults.
func (s *SettingsService) Load(ctx context.Context) error {
	loaded, err := s.store.GetAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = settings.Merge(loaded)
	s.mu.Unlock()

	s.logger.Debug().Int("count", len(loaded)).Msg("settings loaded")
	return nil
}

// Start reloads settings every interval until ctx is done. Reload
// failures keep the previous values.
func (s *SettingsService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Load(ctx); err != nil && ctx.Err() == nil {
					s.logger.Warn().Err(err).Msg("settings reload failed, keeping previous values")
				}
			}
		}
	}()
}

// Get returns a copy of the current settings.
func (s *SettingsService) Get() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(settings.Settings, len(s.cache))
	for k, v := range s.cache {
		result[k] = v
	}
	return result
}

// Site returns the site view of the current settings.
func (s *SettingsService) Site() settings.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Site()
}

// Set updates a setting in both cache and store.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := s.store.Set(ctx, key, value); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	s.logger.Debug().Str("key", key).Msg("setting updated")
	return nil
}

package memory

import (
	"context"
	"sync"

	"github.com/artpar/contentgate/domain/settings"
)

// SettingsStore is an in-memory implementation of ports.SettingsStore.
type SettingsStore struct {
	mu     sync.RWMutex
	values settings.Settings
}

// NewSettingsStore creates a new in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{values: make(settings.Settings)}
}

// GetAll returns a copy of all settings.
func (s *SettingsStore) GetAll(ctx context.Context) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(settings.Settings, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

// Set stores or updates a setting.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

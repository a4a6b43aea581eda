package memory

import (
	"context"
	"sync"

	"github.com/artpar/contentgate/ports"
)

// MenuStore is an in-memory implementation of ports.MenuStore.
type MenuStore struct {
	mu    sync.RWMutex
	menus map[string][]ports.MenuItem
}

// NewMenuStore creates a new in-memory menu store.
func NewMenuStore() *MenuStore {
	return &MenuStore{menus: make(map[string][]ports.MenuItem)}
}

// ListMenus returns a copy of every menu.
func (s *MenuStore) ListMenus(ctx context.Context) (map[string][]ports.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]ports.MenuItem, len(s.menus))
	for name, items := range s.menus {
		out[name] = append([]ports.MenuItem(nil), items...)
	}
	return out, nil
}

// Append adds items to the end of a menu.
func (s *MenuStore) Append(menu string, items ...ports.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus[menu] = append(s.menus[menu], items...)
}

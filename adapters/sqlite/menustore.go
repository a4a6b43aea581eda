package sqlite

import (
	"context"

	"github.com/artpar/contentgate/ports"
)

// MenuStore implements ports.MenuStore using SQLite.
type MenuStore struct {
	db *DB
}

// NewMenuStore creates a new SQLite menu store.
func NewMenuStore(db *DB) *MenuStore {
	return &MenuStore{db: db}
}

// ListMenus returns every menu keyed by name, items in position order.
func (s *MenuStore) ListMenus(ctx context.Context) (map[string][]ports.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT menu, label, url FROM menu_items ORDER BY menu ASC, position ASC, label ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	menus := make(map[string][]ports.MenuItem)
	for rows.Next() {
		var menu string
		var item ports.MenuItem
		if err := rows.Scan(&menu, &item.Label, &item.URL); err != nil {
			return nil, err
		}
		menus[menu] = append(menus[menu], item)
	}
	return menus, rows.Err()
}

// AddItem appends an item to a menu at the given position.
func (s *MenuStore) AddItem(ctx context.Context, id, menu string, position int, item ports.MenuItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_items (id, menu, label, url, position) VALUES (?, ?, ?, ?, ?)
	`, id, menu, item.Label, item.URL, position)
	return err
}

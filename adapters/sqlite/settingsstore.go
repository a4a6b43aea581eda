package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/artpar/contentgate/domain/settings"
)

// SettingsStore implements ports.SettingsStore using SQLite.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a new settings store.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get retrieves a single setting by key.
func (s *SettingsStore) Get(ctx context.Context, key string) (settings.Setting, error) {
	var setting settings.Setting

	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM settings WHERE key = ?`,
		key,
	).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return settings.Setting{}, ErrNotFound
	}
	if err != nil {
		return settings.Setting{}, err
	}
	return setting, nil
}

// GetAll retrieves all settings as a map.
func (s *SettingsStore) GetAll(ctx context.Context) (settings.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(settings.Settings)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		result[key] = value
	}

	return result, rows.Err()
}

// Set stores or updates a setting.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

// Delete removes a setting.
func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	return err
}

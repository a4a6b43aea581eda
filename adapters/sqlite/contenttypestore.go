package sqlite

import (
	"context"

	"github.com/artpar/contentgate/domain/content"
)

// ContentTypeStore implements ports.ContentTypeStore using SQLite.
type ContentTypeStore struct {
	db *DB
}

// NewContentTypeStore creates a new SQLite content type store.
func NewContentTypeStore(db *DB) *ContentTypeStore {
	return &ContentTypeStore{db: db}
}

// ListContentTypes returns all content types ordered by name.
func (s *ContentTypeStore) ListContentTypes(ctx context.Context) ([]content.Type, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, label, plural_label, has_status, has_seo, is_system
		FROM content_types
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []content.Type
	for rows.Next() {
		var t content.Type
		var hasStatus, hasSeo, isSystem int
		if err := rows.Scan(&t.Name, &t.Label, &t.PluralLabel, &hasStatus, &hasSeo, &isSystem); err != nil {
			return nil, err
		}
		t.HasStatus = hasStatus == 1
		t.HasSeo = hasSeo == 1
		t.IsSystem = isSystem == 1
		types = append(types, t)
	}
	return types, rows.Err()
}

// UpsertContentType stores a content type unless one with the same name
// already exists. Existing rows are never modified.
func (s *ContentTypeStore) UpsertContentType(ctx context.Context, t content.Type) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_types (name, label, plural_label, has_status, has_seo, is_system)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, t.Name, t.Label, t.PluralLabel, boolToInt(t.HasStatus), boolToInt(t.HasSeo), boolToInt(t.IsSystem))
	return err
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/ports"
)

// TemplateStore implements ports.TemplateStore using SQLite.
type TemplateStore struct {
	db *DB
}

// NewTemplateStore creates a new SQLite template store.
func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// FindTemplateByPath retrieves a definition by template path.
func (s *TemplateStore) FindTemplateByPath(ctx context.Context, path string) (ports.TemplateDefinition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, name, content_type, regions, checksum, updated_at
		FROM template_definitions
		WHERE path = ?
	`, path)
	return scanTemplate(row)
}

// ListTemplates returns all definitions ordered by path.
func (s *TemplateStore) ListTemplates(ctx context.Context) ([]ports.TemplateDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, name, content_type, regions, checksum, updated_at
		FROM template_definitions
		ORDER BY path ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []ports.TemplateDefinition
	for rows.Next() {
		d, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// UpsertTemplate inserts the definition or replaces the stored one with the
// same path. updated_at only moves when something other than the timestamp
// changed, so re-syncing an unchanged tree leaves the row untouched.
func (s *TemplateStore) UpsertTemplate(ctx context.Context, d ports.TemplateDefinition) error {
	regions, err := json.Marshal(nonNilSpecs(d.Regions))
	if err != nil {
		return fmt.Errorf("marshal regions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO template_definitions (id, path, name, content_type, regions, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			updated_at = CASE
				WHEN name != excluded.name
				  OR content_type != excluded.content_type
				  OR regions != excluded.regions
				  OR checksum != excluded.checksum
				THEN excluded.updated_at
				ELSE updated_at
			END,
			name = excluded.name,
			content_type = excluded.content_type,
			regions = excluded.regions,
			checksum = excluded.checksum
	`, d.ID, d.Path, d.Name, d.ContentType, string(regions), d.Checksum, d.UpdatedAt.UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (ports.TemplateDefinition, error) {
	var d ports.TemplateDefinition
	var regions string

	err := row.Scan(&d.ID, &d.Path, &d.Name, &d.ContentType, &regions, &d.Checksum, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.TemplateDefinition{}, ErrNotFound
	}
	if err != nil {
		return ports.TemplateDefinition{}, err
	}

	if err := json.Unmarshal([]byte(regions), &d.Regions); err != nil {
		return ports.TemplateDefinition{}, fmt.Errorf("decode regions for %s: %w", d.Path, err)
	}
	d.Regions = nonNilSpecs(d.Regions)
	return d, nil
}

// nonNilSpecs restores the empty-slice invariants that JSON omitempty drops:
// a schema always has a region list and a repeater always has a field list.
func nonNilSpecs(specs []region.Spec) []region.Spec {
	if specs == nil {
		return []region.Spec{}
	}
	for i := range specs {
		if specs[i].Type == region.TypeRepeater && specs[i].Fields == nil {
			specs[i].Fields = []region.Spec{}
		}
	}
	return specs
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artpar/contentgate/domain/content"
)

// ContentStore implements ports.ContentStore using SQLite.
//
// The Save* methods exist for seeding and tests; editorial CRUD lives
// outside this service.
type ContentStore struct {
	db *DB
}

// NewContentStore creates a new SQLite content store.
func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

const contentColumns = `id, module, slug, title, data`

// FindContentBySlug retrieves exactly one record by its global slug.
func (s *ContentStore) FindContentBySlug(ctx context.Context, slug string) (content.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_records WHERE slug = ?`, slug)
	return scanRecord(row)
}

// FindContentByID retrieves a record by ID.
func (s *ContentStore) FindContentByID(ctx context.Context, id string) (content.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_records WHERE id = ?`, id)
	return scanRecord(row)
}

// ListContentByModule returns all records of a module ordered by title.
func (s *ContentStore) ListContentByModule(ctx context.Context, module string) ([]content.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content_records WHERE module = ? ORDER BY title ASC, slug ASC`, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []content.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// FindModuleRecordByContentID loads the module record of the given shape
// that references the content record.
func (s *ContentStore) FindModuleRecordByContentID(ctx context.Context, kind content.Kind, contentID string) (content.ModuleRecord, error) {
	switch kind {
	case content.KindPage:
		return s.findPage(ctx, contentID)
	case content.KindProduct:
		return s.findProduct(ctx, contentID)
	case content.KindBlock:
		return s.findBlock(ctx, contentID)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

func (s *ContentStore) findPage(ctx context.Context, contentID string) (*content.Page, error) {
	var p content.Page
	var publishedAt sql.NullTime
	var seo seoColumns

	err := s.db.QueryRowContext(ctx, `
		SELECT id, content_id, status, template, published_at,
		       meta_title, meta_description, canonical_url, robots,
		       og_title, og_description, og_image, schema_markup
		FROM pages WHERE content_id = ?
	`, contentID).Scan(append([]any{&p.ID, &p.ContentID, &p.Status, &p.Template, &publishedAt}, seo.dest()...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	p.SeoOverrides = seo.overrides()
	return &p, nil
}

func (s *ContentStore) findProduct(ctx context.Context, contentID string) (*content.Product, error) {
	var p content.Product
	var seo seoColumns

	err := s.db.QueryRowContext(ctx, `
		SELECT id, content_id, status, template, sku, price_cents, currency, inventory,
		       meta_title, meta_description, canonical_url, robots,
		       og_title, og_description, og_image, schema_markup
		FROM products WHERE content_id = ?
	`, contentID).Scan(append([]any{
		&p.ID, &p.ContentID, &p.Status, &p.Template,
		&p.SKU, &p.PriceCents, &p.Currency, &p.Inventory,
	}, seo.dest()...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.SeoOverrides = seo.overrides()
	return &p, nil
}

func (s *ContentStore) findBlock(ctx context.Context, contentID string) (*content.Block, error) {
	var b content.Block
	err := s.db.QueryRowContext(ctx,
		`SELECT id, content_id, status, template FROM blocks WHERE content_id = ?`, contentID,
	).Scan(&b.ID, &b.ContentID, &b.Status, &b.Template)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListPublishedBlocks returns every published block with its content.
func (s *ContentStore) ListPublishedBlocks(ctx context.Context) ([]content.PublishedBlock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.module, c.slug, c.title, c.data,
		       b.id, b.content_id, b.status, b.template
		FROM blocks b
		JOIN content_records c ON c.id = b.content_id
		WHERE b.status = ?
		ORDER BY c.slug ASC
	`, content.StatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []content.PublishedBlock
	for rows.Next() {
		var pb content.PublishedBlock
		if err := rows.Scan(
			&pb.Content.ID, &pb.Content.Module, &pb.Content.Slug, &pb.Content.Title, &pb.Content.Data,
			&pb.Block.ID, &pb.Block.ContentID, &pb.Block.Status, &pb.Block.Template,
		); err != nil {
			return nil, err
		}
		blocks = append(blocks, pb)
	}
	return blocks, rows.Err()
}

// SaveContent inserts or replaces a content record.
func (s *ContentStore) SaveContent(ctx context.Context, r content.Record) error {
	data := r.Data
	if data == "" {
		data = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_records (id, module, slug, title, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			module = excluded.module,
			slug = excluded.slug,
			title = excluded.title,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, r.ID, r.Module, content.NormalizeSlug(r.Slug), r.Title, data)
	return err
}

// SavePage inserts or replaces a page record.
func (s *ContentStore) SavePage(ctx context.Context, p content.Page) error {
	seo := fromOverrides(p.SeoOverrides)
	var publishedAt sql.NullTime
	if p.PublishedAt != nil {
		publishedAt = sql.NullTime{Time: p.PublishedAt.UTC(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pages (id, content_id, status, template, published_at,
			meta_title, meta_description, canonical_url, robots,
			og_title, og_description, og_image, schema_markup)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append([]any{p.ID, p.ContentID, p.Status, p.Template, publishedAt}, seo.values()...)...)
	return err
}

// SaveProduct inserts or replaces a product record.
func (s *ContentStore) SaveProduct(ctx context.Context, p content.Product) error {
	seo := fromOverrides(p.SeoOverrides)
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO products (id, content_id, status, template, sku, price_cents, currency, inventory,
			meta_title, meta_description, canonical_url, robots,
			og_title, og_description, og_image, schema_markup)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append([]any{p.ID, p.ContentID, p.Status, p.Template, p.SKU, p.PriceCents, currency, p.Inventory}, seo.values()...)...)
	return err
}

// SaveBlock inserts or replaces a block record.
func (s *ContentStore) SaveBlock(ctx context.Context, b content.Block) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO blocks (id, content_id, status, template)
		VALUES (?, ?, ?, ?)
	`, b.ID, b.ContentID, b.Status, b.Template)
	return err
}

func scanRecord(row rowScanner) (content.Record, error) {
	var r content.Record
	err := row.Scan(&r.ID, &r.Module, &r.Slug, &r.Title, &r.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Record{}, ErrNotFound
	}
	if err != nil {
		return content.Record{}, err
	}
	return r, nil
}

// seoColumns mirrors the nullable SEO override columns shared by pages and
// products, in column order.
type seoColumns struct {
	metaTitle, metaDescription, canonicalURL, robots sql.NullString
	ogTitle, ogDescription, ogImage, schemaMarkup    sql.NullString
}

func (c *seoColumns) dest() []any {
	return []any{
		&c.metaTitle, &c.metaDescription, &c.canonicalURL, &c.robots,
		&c.ogTitle, &c.ogDescription, &c.ogImage, &c.schemaMarkup,
	}
}

func (c seoColumns) values() []any {
	return []any{
		c.metaTitle, c.metaDescription, c.canonicalURL, c.robots,
		c.ogTitle, c.ogDescription, c.ogImage, c.schemaMarkup,
	}
}

func (c seoColumns) overrides() content.SeoOverrides {
	return content.SeoOverrides{
		MetaTitle:       stringPtr(c.metaTitle),
		MetaDescription: stringPtr(c.metaDescription),
		CanonicalURL:    stringPtr(c.canonicalURL),
		Robots:          stringPtr(c.robots),
		OgTitle:         stringPtr(c.ogTitle),
		OgDescription:   stringPtr(c.ogDescription),
		OgImage:         stringPtr(c.ogImage),
		SchemaMarkup:    stringPtr(c.schemaMarkup),
	}
}

func fromOverrides(o content.SeoOverrides) seoColumns {
	return seoColumns{
		metaTitle:       nullString(o.MetaTitle),
		metaDescription: nullString(o.MetaDescription),
		canonicalURL:    nullString(o.CanonicalURL),
		robots:          nullString(o.Robots),
		ogTitle:         nullString(o.OgTitle),
		ogDescription:   nullString(o.OgDescription),
		ogImage:         nullString(o.OgImage),
		schemaMarkup:    nullString(o.SchemaMarkup),
	}
}

package content

import "time"

// Kind identifies which module record shape backs a content record.
type Kind string

const (
	KindPage    Kind = "page"
	KindProduct Kind = "product"
	KindBlock   Kind = "block"
)

// KindOf maps a content record's module name to its record shape.
// Modules without a dedicated shape use the page shape; fallback reports
// whether that happened.
func KindOf(module string) (kind Kind, fallback bool) {
	switch module {
	case TypePages:
		return KindPage, false
	case TypeProducts:
		return KindProduct, false
	case TypeBlocks:
		return KindBlock, false
	default:
		return KindPage, true
	}
}

// Status values across module shapes.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
	StatusActive    = "active"
)

// SeoOverrides holds per-record SEO fields. Nil means "not set" and lets
// the fallback chain apply.
type SeoOverrides struct {
	MetaTitle       *string
	MetaDescription *string
	CanonicalURL    *string
	Robots          *string
	OgTitle         *string
	OgDescription   *string
	OgImage         *string
	SchemaMarkup    *string // JSON-LD blob
}

// ModuleRecord is the closed set of module-specific records: *Page,
// *Product, *Block. Each references exactly one content Record.
type ModuleRecord interface {
	Kind() Kind
	ContentRef() string
	TemplatePath() string
	StatusValue() string
	// Visible reports whether the record passes its module's public status gate.
	Visible() bool
	// Seo returns the record's overrides; shapes without SEO return zero overrides.
	Seo() SeoOverrides

	isModuleRecord()
}

// Page is a page module record.
type Page struct {
	ID          string
	ContentID   string
	Status      string // draft, published, archived
	Template    string
	PublishedAt *time.Time
	SeoOverrides
}

func (p *Page) Kind() Kind           { return KindPage }
func (p *Page) ContentRef() string   { return p.ContentID }
func (p *Page) TemplatePath() string { return p.Template }
func (p *Page) StatusValue() string  { return p.Status }
func (p *Page) Seo() SeoOverrides    { return p.SeoOverrides }
func (p *Page) isModuleRecord()      {}

// Visible requires published status.
func (p *Page) Visible() bool { return p.Status == StatusPublished }

// Product is a product module record.
type Product struct {
	ID         string
	ContentID  string
	Status     string // active, draft, archived
	Template   string
	SKU        string
	PriceCents int64
	Currency   string
	Inventory  int
	SeoOverrides
}

func (p *Product) Kind() Kind           { return KindProduct }
func (p *Product) ContentRef() string   { return p.ContentID }
func (p *Product) TemplatePath() string { return p.Template }
func (p *Product) StatusValue() string  { return p.Status }
func (p *Product) Seo() SeoOverrides    { return p.SeoOverrides }
func (p *Product) isModuleRecord()      {}

// Visible accepts active and draft products.
func (p *Product) Visible() bool {
	return p.Status == StatusActive || p.Status == StatusDraft
}

// InStock reports whether inventory is available.
func (p *Product) InStock() bool { return p.Inventory > 0 }

// Block is a reusable fragment record.
type Block struct {
	ID        string
	ContentID string
	Status    string // draft, published
	Template  string
}

func (b *Block) Kind() Kind           { return KindBlock }
func (b *Block) ContentRef() string   { return b.ContentID }
func (b *Block) TemplatePath() string { return b.Template }
func (b *Block) StatusValue() string  { return b.Status }
func (b *Block) Seo() SeoOverrides    { return SeoOverrides{} }
func (b *Block) isModuleRecord()      {}

// Visible requires published status.
func (b *Block) Visible() bool { return b.Status == StatusPublished }

// PublishedBlock pairs a block record with its content record.
type PublishedBlock struct {
	Content Record
	Block   Block
}

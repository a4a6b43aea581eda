// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"html/template"
	"io"
	"time"

	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/domain/settings"
)

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// TemplateDefinition is the persisted form of one template's schema.
type TemplateDefinition struct {
	ID          string
	Path        string // template path, extension stripped
	Name        string
	ContentType string
	Regions     []region.Spec
	Checksum    string // BLAKE3 of the template markup
	UpdatedAt   time.Time
}

// Schema returns the definition as a TemplateSchema.
func (d TemplateDefinition) Schema() region.TemplateSchema {
	return region.TemplateSchema{
		TemplatePath: d.Path,
		DisplayName:  d.Name,
		ContentType:  d.ContentType,
		Regions:      d.Regions,
	}
}

// TemplateStore persists template definitions.
type TemplateStore interface {
	// FindTemplateByPath retrieves a definition by template path.
	FindTemplateByPath(ctx context.Context, path string) (TemplateDefinition, error)

	// UpsertTemplate inserts or replaces the definition keyed by path.
	// Name, regions, content type and checksum are always overwritten;
	// the ID of an existing row is kept.
	UpsertTemplate(ctx context.Context, d TemplateDefinition) error

	// ListTemplates returns all definitions ordered by path.
	ListTemplates(ctx context.Context) ([]TemplateDefinition, error)
}

// ContentTypeStore persists content types.
type ContentTypeStore interface {
	// ListContentTypes returns all content types ordered by name.
	ListContentTypes(ctx context.Context) ([]content.Type, error)

	// UpsertContentType stores a content type unless one with the same
	// name already exists.
	UpsertContentType(ctx context.Context, t content.Type) error
}

// ContentStore reads content records and their module records.
type ContentStore interface {
	// FindContentBySlug retrieves exactly one record by its global slug.
	FindContentBySlug(ctx context.Context, slug string) (content.Record, error)

	// FindContentByID retrieves a record by ID.
	FindContentByID(ctx context.Context, id string) (content.Record, error)

	// ListContentByModule returns all records of a module ordered by title.
	ListContentByModule(ctx context.Context, module string) ([]content.Record, error)

	// FindModuleRecordByContentID loads the module record of the given
	// shape that references the content record.
	FindModuleRecordByContentID(ctx context.Context, kind content.Kind, contentID string) (content.ModuleRecord, error)

	// ListPublishedBlocks returns every published block with its content.
	ListPublishedBlocks(ctx context.Context) ([]content.PublishedBlock, error)
}

// MenuItem is one navigation entry.
type MenuItem struct {
	Label string
	URL   string
}

// MenuStore reads navigation menus.
type MenuStore interface {
	// ListMenus returns every menu keyed by name, items in position order.
	ListMenus(ctx context.Context) (map[string][]MenuItem, error)
}

// SettingsStore persists site settings.
type SettingsStore interface {
	// GetAll retrieves all settings as a map.
	GetAll(ctx context.Context) (settings.Settings, error)

	// Set stores or updates a setting.
	Set(ctx context.Context, key, value string) error
}

// -----------------------------------------------------------------------------
// Rendering Ports
// -----------------------------------------------------------------------------

// BlockRenderer renders an embeddable block by slug. Implementations never
// fail; unknown slugs render as empty.
type BlockRenderer interface {
	RenderBlock(slug string) template.HTML
}

// Renderer executes templates from the template tree.
type Renderer interface {
	// Render executes the template at path with data. blocks backs the
	// template-callable renderBlock function for this render only.
	Render(w io.Writer, path string, data any, blocks BlockRenderer) error

	// Exists reports whether a template file exists at path.
	Exists(path string) bool

	// Invalidate drops cached parsed templates.
	Invalidate()
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Metrics receives application-level measurements.
type Metrics interface {
	ObserveResolve(outcome string, d time.Duration)
	ModuleFallback(module string)
	BlockLookup(result string)
	RecordParseError()
	ObserveSync(result string, d time.Duration, templates, skipped int)
}

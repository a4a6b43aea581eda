package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/domain/route"
	"github.com/artpar/contentgate/domain/seo"
	"github.com/artpar/contentgate/domain/settings"
	"github.com/artpar/contentgate/ports"
	"github.com/rs/zerolog"
)

// Reserved error templates, relative to the template root.
const (
	NotFoundTemplate    = "layouts/404"
	ServerErrorTemplate = "layouts/500"
)

// Resolution outcomes reported to metrics.
const (
	outcomeOK       = "ok"
	outcomeIndex    = "index"
	outcomeNotFound = "not_found"
	outcomeConfig   = "config_error"
	outcomeStorage  = "storage_error"
)

// SiteSource supplies the current site settings.
type SiteSource interface {
	Site() settings.Site
}

// Stores groups the persistence ports the resolver reads.
type Stores struct {
	Templates    ports.TemplateStore
	ContentTypes ports.ContentTypeStore
	Content      ports.ContentStore
	Menus        ports.MenuStore
}

// ResolverConfig contains configuration for Resolver.
type ResolverConfig struct {
	DefaultModule string // module assumed for unprefixed paths
}

// IndexRecord is one entry of a module listing.
type IndexRecord struct {
	content.Record
	Data map[string]any
}

// RenderContext is everything a template receives for one request.
type RenderContext struct {
	Path     string // request path after normalization and rewrites
	Template string

	Module  content.ModuleRecord // nil for listings and error pages
	Content content.Record
	Data    map[string]any // raw field map
	Fields  map[string]any // field map shaped by the template's regions
	Schema  region.TemplateSchema

	SEO    seo.Context
	Site   settings.Site
	Menus  map[string][]ports.MenuItem
	Blocks *BlockTable

	// Listing pages only.
	IsIndex     bool
	ContentType content.Type
	Records     []IndexRecord

	Status int // HTTP status the page is served with
}

// Resolver turns request paths into render contexts.
type Resolver struct {
	stores   Stores
	site     SiteSource
	renderer ports.Renderer
	metrics  ports.Metrics
	logger   zerolog.Logger
	cfg      ResolverConfig
}

// NewResolver creates a new resolver.
func NewResolver(
	stores Stores,
	site SiteSource,
	renderer ports.Renderer,
	metrics ports.Metrics,
	logger zerolog.Logger,
	cfg ResolverConfig,
) *Resolver {
	if cfg.DefaultModule == "" {
		cfg.DefaultModule = content.TypePages
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Resolver{
		stores:   stores,
		site:     site,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger.With().Str("service", "resolver").Logger(),
		cfg:      cfg,
	}
}

// Resolve maps a request path onto a render context. Failures are one of
// ErrNotFound, *ConfigError or *StorageError.
func (r *Resolver) Resolve(ctx context.Context, requestPath string) (*RenderContext, error) {
	start := time.Now()
	rc, err := r.resolve(ctx, requestPath)
	outcome := outcomeOf(err)
	if err == nil && rc.IsIndex {
		outcome = outcomeIndex
	}
	r.metrics.ObserveResolve(outcome, time.Since(start))
	return rc, err
}

func (r *Resolver) resolve(ctx context.Context, requestPath string) (*RenderContext, error) {
	site := r.site.Site()

	p := route.Normalize(requestPath)

	p, err := r.homeOverride(ctx, p, site)
	if err != nil {
		return nil, err
	}

	types, err := r.stores.ContentTypes.ListContentTypes(ctx)
	if err != nil {
		return nil, storageErr("list content types", err)
	}
	known := content.NewRegistry(types...)

	p = route.WithDefaultPrefix(p, known, r.cfg.DefaultModule)

	if module, ok := route.ModuleIndex(p, known); ok {
		ct, _ := known.Lookup(module)
		return r.resolveIndex(ctx, p, ct, site)
	}

	rec, err := r.stores.Content.FindContentBySlug(ctx, p)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find content by slug", err)
	}

	kind, fallback := content.KindOf(rec.Module)
	if fallback {
		// Modules without a record shape are served as pages.
		r.metrics.ModuleFallback(rec.Module)
		r.logger.Warn().
			Str("module", rec.Module).
			Str("content_id", rec.ID).
			Msg("module has no record shape, dispatching as page")
	}

	mr, err := r.stores.Content.FindModuleRecordByContentID(ctx, kind, rec.ID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find module record", err)
	}
	if !mr.Visible() {
		return nil, ErrNotFound
	}

	tpl := mr.TemplatePath()
	if tpl == "" {
		return nil, &ConfigError{Path: p, Reason: "module record " + string(kind) + " has no template assigned"}
	}

	schema, err := r.schema(ctx, tpl)
	if err != nil {
		return nil, err
	}

	data, ok := rec.Fields()
	if !ok {
		r.metrics.RecordParseError()
		r.logger.Warn().Str("content_id", rec.ID).Msg("malformed content data, rendering with empty fields")
	}

	seoCtx := seo.Build(mr.Seo(), rec, seoSite(site))

	blocks, err := NewBlockTable(ctx, r.stores.Content, r.stores.Templates, r.renderer, site, r.metrics, r.logger)
	if err != nil {
		return nil, err
	}

	menus, err := r.menus(ctx)
	if err != nil {
		return nil, err
	}

	return &RenderContext{
		Path:     p,
		Template: tpl,
		Module:   mr,
		Content:  rec,
		Data:     data,
		Fields:   content.ShapeFields(schema.Regions, data),
		Schema:   schema,
		SEO:      seoCtx,
		Site:     site,
		Menus:    menus,
		Blocks:   blocks,
		Status:   http.StatusOK,
	}, nil
}

// homeOverride substitutes the slug of the configured home record for "/".
// Lookup failures fall back to "/"; a record without a slug is a
// configuration error.
func (r *Resolver) homeOverride(ctx context.Context, p string, site settings.Site) (string, error) {
	if p != "/" || site.HomeRecordID == "" {
		return p, nil
	}

	rec, err := r.stores.Content.FindContentByID(ctx, site.HomeRecordID)
	if err != nil {
		r.logger.Warn().Err(err).Str("home_record_id", site.HomeRecordID).Msg("home record lookup failed, falling back to /")
		return p, nil
	}
	if rec.Slug == "" {
		return "", &ConfigError{Path: p, Reason: "home record " + rec.ID + " has no slug"}
	}
	return route.Normalize(rec.Slug), nil
}

func (r *Resolver) resolveIndex(ctx context.Context, p string, ct content.Type, site settings.Site) (*RenderContext, error) {
	tpl := route.IndexTemplate(ct.Name)
	schema, err := r.stores.Templates.FindTemplateByPath(ctx, tpl)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find index template", err)
	}

	records, err := r.stores.Content.ListContentByModule(ctx, ct.Name)
	if err != nil {
		return nil, storageErr("list content by module", err)
	}
	entries := make([]IndexRecord, len(records))
	for i, rec := range records {
		data, ok := rec.Fields()
		if !ok {
			r.metrics.RecordParseError()
		}
		entries[i] = IndexRecord{Record: rec, Data: data}
	}

	blocks, err := NewBlockTable(ctx, r.stores.Content, r.stores.Templates, r.renderer, site, r.metrics, r.logger)
	if err != nil {
		return nil, err
	}
	menus, err := r.menus(ctx)
	if err != nil {
		return nil, err
	}

	title := ct.PluralLabel
	if title == "" {
		title = ct.Name
	}
	return &RenderContext{
		Path:        p,
		Template:    tpl,
		Data:        map[string]any{},
		Fields:      map[string]any{},
		Schema:      schema.Schema(),
		SEO:         seo.ForListing(title, p, seoSite(site)),
		Site:        site,
		Menus:       menus,
		Blocks:      blocks,
		IsIndex:     true,
		ContentType: ct,
		Records:     entries,
		Status:      http.StatusOK,
	}, nil
}

// ErrorContext builds the context for the reserved error page matching
// status. Storage failures degrade to an empty block table and no menus so
// that an error page can still render. ok is false when the error template
// does not exist.
func (r *Resolver) ErrorContext(ctx context.Context, requestPath string, status int) (rc *RenderContext, ok bool) {
	tpl := ServerErrorTemplate
	if status == http.StatusNotFound {
		tpl = NotFoundTemplate
	}
	site := r.site.Site()

	blocks, err := NewBlockTable(ctx, r.stores.Content, r.stores.Templates, r.renderer, site, r.metrics, r.logger)
	if err != nil {
		r.logger.Warn().Err(err).Msg("error page rendered without blocks")
		blocks = newBlockTable(ctx, nil, r.stores.Templates, r.renderer, site, r.metrics, r.logger)
	}
	menus, err := r.menus(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("error page rendered without menus")
		menus = map[string][]ports.MenuItem{}
	}

	rc = &RenderContext{
		Path:     route.Normalize(requestPath),
		Template: tpl,
		Data:     map[string]any{},
		Fields:   map[string]any{},
		Schema:   region.TemplateSchema{TemplatePath: tpl, Regions: []region.Spec{}},
		SEO:      seo.ForError(http.StatusText(status)),
		Site:     site,
		Menus:    menus,
		Blocks:   blocks,
		Status:   status,
	}
	return rc, r.renderer != nil && r.renderer.Exists(tpl)
}

func (r *Resolver) schema(ctx context.Context, tpl string) (region.TemplateSchema, error) {
	def, err := r.stores.Templates.FindTemplateByPath(ctx, tpl)
	if errors.Is(err, ports.ErrNotFound) {
		// Not synced yet: render with raw data only.
		return region.TemplateSchema{TemplatePath: tpl, Regions: []region.Spec{}}, nil
	}
	if err != nil {
		return region.TemplateSchema{}, storageErr("find template", err)
	}
	return def.Schema(), nil
}

func (r *Resolver) menus(ctx context.Context) (map[string][]ports.MenuItem, error) {
	if r.stores.Menus == nil {
		return map[string][]ports.MenuItem{}, nil
	}
	menus, err := r.stores.Menus.ListMenus(ctx)
	if err != nil {
		return nil, storageErr("list menus", err)
	}
	if menus == nil {
		menus = map[string][]ports.MenuItem{}
	}
	return menus, nil
}

func seoSite(site settings.Site) seo.Site {
	return seo.Site{URL: site.URL, DefaultMetaDescription: site.DefaultMetaDescription}
}

func outcomeOf(err error) string {
	var cfgErr *ConfigError
	var storeErr *StorageError
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	case errors.As(err, &cfgErr):
		return outcomeConfig
	case errors.As(err, &storeErr):
		return outcomeStorage
	default:
		return outcomeStorage
	}
}

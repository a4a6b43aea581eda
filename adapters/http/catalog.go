package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/pkg/jsonapi"
	"github.com/artpar/contentgate/ports"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// JSON:API resource types.
const (
	typeTemplate    = "templates"
	typeContentType = "content-types"
)

// CatalogHandler exposes the template catalog.
type CatalogHandler struct {
	syncer    app.Syncer
	templates ports.TemplateStore
	types     ports.ContentTypeStore
	logger    zerolog.Logger
}

// NewCatalogHandler creates the catalog API handler.
func NewCatalogHandler(syncer app.Syncer, templates ports.TemplateStore, types ports.ContentTypeStore, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		syncer:    syncer,
		templates: templates,
		types:     types,
		logger:    logger.With().Str("service", "catalog-api").Logger(),
	}
}

// Router returns the catalog routes, relative to their mount point.
func (h *CatalogHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/sync", h.Sync)
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/*", h.GetTemplate)
	r.Get("/content-types", h.ListContentTypes)
	return r
}

// Sync runs a catalog sync and returns the discovered templates. A sync
// already in progress yields 409.
func (h *CatalogHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.Sync(r.Context())
	if errors.Is(err, app.ErrSyncInProgress) {
		jsonapi.WriteError(w, jsonapi.ErrConflict("a catalog sync is already running"))
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("catalog sync failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal(err.Error()))
		return
	}

	resources := make([]jsonapi.Resource, len(result.Templates))
	for i, s := range result.Templates {
		resources[i] = jsonapi.NewResource(typeTemplate, s.TemplatePath).
			Attr("name", s.DisplayName).
			Attr("content_type", s.ContentType).
			Attr("regions", s.Regions)
	}
	skipped := result.Skipped
	if skipped == nil {
		skipped = []app.SkippedFile{}
	}
	registered := result.ContentTypes
	if registered == nil {
		registered = []string{}
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources, jsonapi.Meta{
		"created":                  result.Created,
		"updated":                  result.Updated,
		"unchanged":                result.Unchanged,
		"content_types_registered": registered,
		"skipped":                  skipped,
		"duration_ms":              result.Duration.Milliseconds(),
	})
}

// ListTemplates returns every stored template definition.
func (h *CatalogHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	defs, err := h.templates.ListTemplates(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list templates failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal(""))
		return
	}
	resources := make([]jsonapi.Resource, len(defs))
	for i, d := range defs {
		resources[i] = templateResource(d)
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources, jsonapi.Meta{"total": len(defs)})
}

// GetTemplate returns one definition; the template path is the rest of the
// URL after /templates/.
func (h *CatalogHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	p := strings.Trim(chi.URLParam(r, "*"), "/")
	d, err := h.templates.FindTemplateByPath(r.Context(), p)
	if errors.Is(err, ports.ErrNotFound) {
		jsonapi.WriteError(w, jsonapi.ErrNotFound("template"))
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("template", p).Msg("find template failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal(""))
		return
	}
	jsonapi.WriteDocument(w, http.StatusOK, jsonapi.Document{Data: templateResource(d)})
}

// ListContentTypes returns every registered content type.
func (h *CatalogHandler) ListContentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.types.ListContentTypes(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list content types failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal(""))
		return
	}
	resources := make([]jsonapi.Resource, len(types))
	for i, t := range types {
		resources[i] = contentTypeResource(t)
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources, jsonapi.Meta{"total": len(types)})
}

func templateResource(d ports.TemplateDefinition) jsonapi.Resource {
	return jsonapi.NewResource(typeTemplate, d.Path).
		Attr("name", d.Name).
		Attr("content_type", d.ContentType).
		Attr("regions", d.Regions).
		Attr("checksum", d.Checksum).
		Attr("updated_at", d.UpdatedAt.UTC().Format(time.RFC3339))
}

func contentTypeResource(t content.Type) jsonapi.Resource {
	return jsonapi.NewResource(typeContentType, t.Name).
		Attr("label", t.Label).
		Attr("plural_label", t.PluralLabel).
		Attr("has_status", t.HasStatus).
		Attr("has_seo", t.HasSeo).
		Attr("is_system", t.IsSystem)
}

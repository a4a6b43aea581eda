package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/ports"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// PageResolver turns request paths into render contexts.
type PageResolver interface {
	Resolve(ctx context.Context, path string) (*app.RenderContext, error)
	ErrorContext(ctx context.Context, path string, status int) (*app.RenderContext, bool)
}

// SiteHandler serves rendered content pages.
type SiteHandler struct {
	resolver PageResolver
	renderer ports.Renderer
	logger   zerolog.Logger
}

// NewSiteHandler creates a handler that resolves and renders every request.
func NewSiteHandler(resolver PageResolver, renderer ports.Renderer, logger zerolog.Logger) *SiteHandler {
	return &SiteHandler{
		resolver: resolver,
		renderer: renderer,
		logger:   logger.With().Str("service", "site").Logger(),
	}
}

// ServeHTTP resolves the request path and renders the matched template.
// Missing content is served with the 404 page; configuration, storage and
// render failures with the 500 page. Without those templates a plain text
// status body is written.
func (h *SiteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.With().
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(ctx)).
		Logger()

	rc, err := h.resolver.Resolve(ctx, r.URL.Path)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, rc.Template, rc, blocksOf(rc)); err != nil {
		log.Error().Err(err).Str("template", rc.Template).Msg("render failed")
		h.serveStatus(w, r, log, http.StatusInternalServerError)
		return
	}

	status := rc.Status
	if status == 0 {
		status = http.StatusOK
	}
	writeHTML(w, status, &buf, log)
}

func (h *SiteHandler) fail(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var cfgErr *app.ConfigError
	var storeErr *app.StorageError

	switch {
	case errors.Is(err, app.ErrNotFound):
		log.Debug().Msg("no content for path")
		h.serveStatus(w, r, log, http.StatusNotFound)
		return
	case errors.Is(err, context.Canceled):
		log.Debug().Msg("client went away")
		return
	case errors.As(err, &cfgErr):
		log.Error().Err(err).Msg("content configuration error")
	case errors.As(err, &storeErr):
		log.Error().Err(err).Str("op", storeErr.Op).Msg("content storage error")
	default:
		log.Error().Err(err).Msg("resolve failed")
	}
	h.serveStatus(w, r, log, http.StatusInternalServerError)
}

// serveStatus writes the reserved error page for status, falling back to
// plain text when the page is missing or fails to render.
func (h *SiteHandler) serveStatus(w http.ResponseWriter, r *http.Request, log zerolog.Logger, status int) {
	rc, ok := h.resolver.ErrorContext(r.Context(), r.URL.Path, status)
	if ok {
		var buf bytes.Buffer
		err := h.renderer.Render(&buf, rc.Template, rc, blocksOf(rc))
		if err == nil {
			writeHTML(w, status, &buf, log)
			return
		}
		log.Warn().Err(err).Str("template", rc.Template).Msg("error page render failed")
	}
	http.Error(w, http.StatusText(status), status)
}

func blocksOf(rc *app.RenderContext) ports.BlockRenderer {
	if rc.Blocks == nil {
		return nil
	}
	return rc.Blocks
}

func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer, log zerolog.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Debug().Err(err).Msg("failed to write response body")
	}
}

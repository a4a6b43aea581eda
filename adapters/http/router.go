// Package http serves rendered content pages and the catalog API.
package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/contentgate/adapters/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // exporter served at MetricsPath; no endpoint when nil
	MetricsPath    string       // default "/metrics"
	CatalogHandler http.Handler // mounted at /_catalog when set
	Version        string
	RequestTimeout time.Duration // default 60s
}

// NewRouter creates the main HTTP router. Every path not claimed by an
// internal endpoint is served by site.
func NewRouter(site http.Handler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	internal := func(p string) bool {
		return p == "/healthz" || (cfg.MetricsHandler != nil && p == cfg.MetricsPath)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, internal))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.GetHead)
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, internal))
	}

	r.Get("/healthz", Liveness)
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{Version: version, Service: "contentgate"})
	})

	if cfg.MetricsHandler != nil {
		r.Handle(cfg.MetricsPath, cfg.MetricsHandler)
	}

	if cfg.CatalogHandler != nil {
		r.Mount("/_catalog", cfg.CatalogHandler)
	}

	r.Get("/*", site.ServeHTTP)

	return r
}

// Liveness reports that the process is serving.
func Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// NewLoggingMiddleware logs every request at debug level, except the paths
// skip reports true for.
func NewLoggingMiddleware(logger zerolog.Logger, skip func(string) bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if skip != nil && skip(r.URL.Path) {
				return
			}

			event := logger.Debug()
			if ww.Status() >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// NewMetricsMiddleware records request counts, durations and in-flight
// requests, except for the paths skip reports true for.
func NewMetricsMiddleware(m *metrics.Collector, skip func(string) bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip != nil && skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(strings.ToUpper(r.Method), status, time.Since(start))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

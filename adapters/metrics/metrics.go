// Package metrics provides Prometheus metrics collection for contentgate.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contentgate"

// Collector holds all Prometheus metrics for contentgate.
// The helper methods are safe to call on a nil *Collector.
type Collector struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Resolution metrics
	Resolutions       *prometheus.CounterVec
	ResolveDuration   prometheus.Histogram
	ModuleFallbacks   *prometheus.CounterVec
	BlockLookups      *prometheus.CounterVec
	RecordParseErrors prometheus.Counter

	// Catalog metrics
	CatalogSyncs        *prometheus.CounterVec
	CatalogSyncDuration prometheus.Histogram
	CatalogTemplates    prometheus.Gauge
	CatalogSkipped      prometheus.Counter
	CatalogLastSync     prometheus.Gauge
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Content resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ResolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Time spent resolving a path into a render context",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		ModuleFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "module_fallbacks_total",
				Help:      "Content records dispatched with the page shape because their module has none",
			},
			[]string{"module"},
		),
		BlockLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "block_lookups_total",
				Help:      "Block embeddings by result",
			},
			[]string{"result"},
		),
		RecordParseErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_parse_errors_total",
				Help:      "Content records whose field data could not be parsed",
			},
		),
		CatalogSyncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_syncs_total",
				Help:      "Template catalog syncs by result",
			},
			[]string{"result"},
		),
		CatalogSyncDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_sync_duration_seconds",
				Help:      "Template catalog sync duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		CatalogTemplates: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_templates",
				Help:      "Templates discovered by the last successful sync",
			},
		),
		CatalogSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_skipped_files_total",
				Help:      "Template files skipped because they could not be read",
			},
		),
		CatalogLastSync: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_last_sync_timestamp",
				Help:      "Unix timestamp of the last successful sync",
			},
		),
	}
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method string, status int, d time.Duration) {
	if c == nil {
		return
	}
	code := strconv.Itoa(status)
	c.RequestsTotal.WithLabelValues(method, code).Inc()
	c.RequestDuration.WithLabelValues(method, code).Observe(d.Seconds())
}

// ObserveResolve records a resolution outcome.
func (c *Collector) ObserveResolve(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Resolutions.WithLabelValues(outcome).Inc()
	c.ResolveDuration.Observe(d.Seconds())
}

// ModuleFallback counts a dispatch that fell back to the page shape.
func (c *Collector) ModuleFallback(module string) {
	if c == nil {
		return
	}
	c.ModuleFallbacks.WithLabelValues(module).Inc()
}

// BlockLookup counts one renderBlock call by result.
func (c *Collector) BlockLookup(result string) {
	if c == nil {
		return
	}
	c.BlockLookups.WithLabelValues(result).Inc()
}

// RecordParseError counts a content record with unreadable field data.
func (c *Collector) RecordParseError() {
	if c == nil {
		return
	}
	c.RecordParseErrors.Inc()
}

// ObserveSync records a catalog sync.
func (c *Collector) ObserveSync(result string, d time.Duration, templates, skipped int) {
	if c == nil {
		return
	}
	c.CatalogSyncs.WithLabelValues(result).Inc()
	c.CatalogSyncDuration.Observe(d.Seconds())
	if result == "ok" {
		c.CatalogTemplates.Set(float64(templates))
		c.CatalogLastSync.SetToCurrentTime()
	}
	c.CatalogSkipped.Add(float64(skipped))
}

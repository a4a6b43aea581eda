package metrics_test

import (
	"testing"
	"time"

	"github.com/artpar/contentgate/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.RequestsTotal == nil || m.Resolutions == nil || m.CatalogSyncs == nil || m.BlockLookups == nil {
		t.Error("collector has uninitialized metrics")
	}
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveRequest("GET", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", 404, time.Millisecond)

	families := gather(t, reg)
	f, ok := families["contentgate_http_requests_total"]
	if !ok {
		t.Fatal("contentgate_http_requests_total metric not found")
	}
	if len(f.GetMetric()) != 2 {
		t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
	}
	if _, ok := families["contentgate_http_request_duration_seconds"]; !ok {
		t.Error("contentgate_http_request_duration_seconds metric not found")
	}
}

func TestObserveResolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveResolve("ok", time.Millisecond)
	m.ObserveResolve("not_found", time.Millisecond)
	m.ObserveResolve("ok", time.Millisecond)
	m.ModuleFallback("events")
	m.BlockLookup("hit")
	m.RecordParseError()

	families := gather(t, reg)
	f := families["contentgate_resolutions_total"]
	if f == nil || len(f.GetMetric()) != 2 {
		t.Fatalf("expected 2 resolution series, got %v", f)
	}
	for _, name := range []string{
		"contentgate_module_fallbacks_total",
		"contentgate_block_lookups_total",
		"contentgate_record_parse_errors_total",
		"contentgate_resolve_duration_seconds",
	} {
		if _, ok := families[name]; !ok {
			t.Errorf("%s metric not found", name)
		}
	}
}

func TestObserveSync(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveSync("ok", time.Second, 12, 1)
	m.ObserveSync("error", time.Second, 0, 0)

	families := gather(t, reg)
	gauge := families["contentgate_catalog_templates"]
	if gauge == nil {
		t.Fatal("contentgate_catalog_templates metric not found")
	}
	if got := gauge.GetMetric()[0].GetGauge().GetValue(); got != 12 {
		t.Errorf("catalog_templates = %v, want 12 (failed syncs must not reset it)", got)
	}
	skipped := families["contentgate_catalog_skipped_files_total"]
	if got := skipped.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var m *metrics.Collector
	m.ObserveRequest("GET", 200, time.Millisecond)
	m.ObserveResolve("ok", time.Millisecond)
	m.ModuleFallback("x")
	m.BlockLookup("miss")
	m.RecordParseError()
	m.ObserveSync("ok", time.Second, 1, 0)
}

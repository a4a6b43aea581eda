package app_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/artpar/contentgate/adapters/memory"
	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/domain/settings"
	"github.com/artpar/contentgate/ports"
)

// recordingMetrics implements ports.Metrics and remembers what it saw.
type recordingMetrics struct {
	mu          sync.Mutex
	outcomes    []string
	fallbacks   []string
	lookups     []string
	parseErrors int
	syncs       []string
}

func (m *recordingMetrics) ObserveResolve(outcome string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) ModuleFallback(module string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, module)
}

func (m *recordingMetrics) BlockLookup(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, result)
}

func (m *recordingMetrics) RecordParseError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parseErrors++
}

func (m *recordingMetrics) ObserveSync(result string, d time.Duration, templates, skipped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs = append(m.syncs, result)
}

// staticSite implements app.SiteSource.
type staticSite settings.Settings

func (s staticSite) Site() settings.Site { return settings.Merge(settings.Settings(s)).Site() }

// countingRenderer records Invalidate calls.
type countingRenderer struct {
	mu          sync.Mutex
	invalidated int
}

func (r *countingRenderer) Render(w io.Writer, path string, data any, blocks ports.BlockRenderer) error {
	return nil
}

func (r *countingRenderer) Exists(path string) bool { return false }

func (r *countingRenderer) Invalidate() {
	r.mu.Lock()
	r.invalidated++
	r.mu.Unlock()
}

func seedSystemTypes(t *testing.T, stores *memory.Stores) {
	t.Helper()
	for _, ct := range content.SystemTypes() {
		if err := stores.ContentTypes.UpsertContentType(context.Background(), ct); err != nil {
			t.Fatal(err)
		}
	}
}

// writeTree creates files under a temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func strPtr(s string) *string { return &s }

var (
	_ app.SiteSource = staticSite{}
	_ ports.Metrics  = (*recordingMetrics)(nil)
	_ ports.Renderer = (*countingRenderer)(nil)
)

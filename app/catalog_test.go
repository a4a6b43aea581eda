package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/artpar/contentgate/adapters/clock"
	"github.com/artpar/contentgate/adapters/idgen"
	"github.com/artpar/contentgate/adapters/memory"
	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/ports"
	"github.com/rs/zerolog"
)

var catalogTree = map[string]string{
	"layouts/base.html": `{{define "base"}}<title data-region="never_extracted">x</title>{{end}}`,
	"pages/about.html": `
		<h1 data-region="hero_title" data-required>About</h1>
		<div data-region="body" data-type="richtext"></div>`,
	"pages/team/lead.html": `<p data-region="bio" data-type="textarea"></p>`,
	"products/detail.html": `
		<h1 data-region="title"></h1>
		<ul data-region="features" data-type="repeater"
		    data-fields='[{"name":"label"},{"name":"icon","type":"image"}]'></ul>`,
	"products/index.html": `<h1>Shop</h1>`,
	"blocks/cta.html":     `<a data-region="text">Buy</a>`,
	"home.html":           `<h1 data-region="headline"></h1>`,
	"events/show.html":    `<h1 data-region="title"></h1>`,
	"pages/notes.txt":     `not a template`,
	".hidden/x.html":      `<p data-region="secret"></p>`,
}

func newCatalog(t *testing.T, root string, stores *memory.Stores, renderer ports.Renderer, metrics ports.Metrics) *app.CatalogService {
	t.Helper()
	return app.NewCatalogService(
		os.DirFS(root),
		stores.Templates,
		stores.ContentTypes,
		renderer,
		clock.NewStepper(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second),
		idgen.NewSequential("tpl"),
		metrics,
		zerolog.Nop(),
		app.CatalogConfig{Extension: ".html", DefaultModule: "pages", Workers: 2},
	)
}

func TestCatalogSync_DiscoversTemplates(t *testing.T) {
	stores := memory.New()
	seedSystemTypes(t, stores)
	catalog := newCatalog(t, writeTree(t, catalogTree), stores, nil, nil)
	ctx := context.Background()

	result, err := catalog.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	defs, _ := stores.Templates.ListTemplates(ctx)
	got := make(map[string]string)
	for _, d := range defs {
		got[d.Path] = d.ContentType
	}
	want := map[string]string{
		"blocks/cta":      "blocks",
		"events/show":     "events",
		"home":            "pages",
		"pages/about":     "pages",
		"pages/team/lead": "pages",
		"products/detail": "products",
		"products/index":  "products",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("templates = %v\nwant %v", got, want)
	}
	if result.Created != len(want) || result.Updated != 0 || result.Unchanged != 0 {
		t.Errorf("result counts = %+v", result)
	}

	about, _ := stores.Templates.FindTemplateByPath(ctx, "pages/about")
	if about.Name != "About" || len(about.Regions) != 2 || !about.Regions[0].Required {
		t.Errorf("pages/about = %+v", about)
	}
	if about.Checksum == "" || len(about.Checksum) != 64 {
		t.Errorf("checksum = %q, want 64 hex chars", about.Checksum)
	}

	detail, _ := stores.Templates.FindTemplateByPath(ctx, "products/detail")
	features, ok := detail.Schema().Region("features")
	if !ok || len(features.Fields) != 2 || features.Fields[1].Type != region.TypeImage {
		t.Errorf("features = %+v", features)
	}
}

func TestCatalogSync_RegistersContentTypes(t *testing.T) {
	stores := memory.New()
	seedSystemTypes(t, stores)
	catalog := newCatalog(t, writeTree(t, catalogTree), stores, nil, nil)
	ctx := context.Background()

	result, err := catalog.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.ContentTypes, []string{"events"}) {
		t.Errorf("registered = %v, want [events]", result.ContentTypes)
	}

	types, _ := stores.ContentTypes.ListContentTypes(ctx)
	byName := make(map[string]content.Type)
	for _, ct := range types {
		byName[ct.Name] = ct
	}
	events := byName["events"]
	if !events.HasStatus || !events.HasSeo || events.IsSystem || events.PluralLabel != "Events" {
		t.Errorf("events = %+v", events)
	}
	if blocks := byName["blocks"]; blocks.HasStatus || blocks.HasSeo {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestCatalogSync_BlocksTypeOnEmptyStore(t *testing.T) {
	stores := memory.New()
	catalog := newCatalog(t, writeTree(t, map[string]string{"blocks/cta.html": `<a data-region="text"></a>`}), stores, nil, nil)
	ctx := context.Background()

	if _, err := catalog.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	types, _ := stores.ContentTypes.ListContentTypes(ctx)
	if len(types) != 1 || types[0].Name != "blocks" || types[0].HasStatus || types[0].HasSeo {
		t.Errorf("types = %+v", types)
	}
}

func TestCatalogSync_Idempotent(t *testing.T) {
	stores := memory.New()
	seedSystemTypes(t, stores)
	catalog := newCatalog(t, writeTree(t, catalogTree), stores, nil, nil)
	ctx := context.Background()

	if _, err := catalog.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	defsBefore, _ := stores.Templates.ListTemplates(ctx)
	typesBefore, _ := stores.ContentTypes.ListContentTypes(ctx)

	second, err := catalog.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defsAfter, _ := stores.Templates.ListTemplates(ctx)
	typesAfter, _ := stores.ContentTypes.ListContentTypes(ctx)

	if !reflect.DeepEqual(defsBefore, defsAfter) {
		t.Error("template definitions changed on unchanged re-sync")
	}
	if !reflect.DeepEqual(typesBefore, typesAfter) {
		t.Error("content types changed on unchanged re-sync")
	}
	if second.Created != 0 || second.Updated != 0 || second.Unchanged != len(defsAfter) {
		t.Errorf("second sync counts = %+v", second)
	}
	if len(second.ContentTypes) != 0 {
		t.Errorf("second sync registered %v", second.ContentTypes)
	}
}

func TestCatalogSync_ReplacesChangedRegions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pages/about.html": `<h1 data-region="title" data-label="Old"></h1><p data-region="gone"></p>`,
	})
	stores := memory.New()
	catalog := newCatalog(t, root, stores, nil, nil)
	ctx := context.Background()

	if _, err := catalog.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pages", "about.html"), []byte(`<h1 data-region="title" data-label="New"></h1>`), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := catalog.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Updated != 1 {
		t.Errorf("Updated = %d, want 1", result.Updated)
	}

	def, _ := stores.Templates.FindTemplateByPath(ctx, "pages/about")
	if len(def.Regions) != 1 || def.Regions[0].Label != "New" {
		t.Errorf("regions were merged instead of replaced: %+v", def.Regions)
	}
}

func TestCatalogSync_SkipsUnreadableFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pages/about.html": `<h1 data-region="title"></h1>`,
	})
	if err := os.Symlink(filepath.Join(root, "does-not-exist"), filepath.Join(root, "pages", "broken.html")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	stores := memory.New()
	metrics := &recordingMetrics{}
	catalog := newCatalog(t, root, stores, nil, metrics)
	ctx := context.Background()

	result, err := catalog.Sync(ctx)
	if err != nil {
		t.Fatalf("unreadable file aborted sync: %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Path != "pages/broken.html" {
		t.Errorf("skipped = %+v", result.Skipped)
	}
	if _, err := stores.Templates.FindTemplateByPath(ctx, "pages/about"); err != nil {
		t.Errorf("readable sibling not synced: %v", err)
	}
	if !reflect.DeepEqual(metrics.syncs, []string{"ok"}) {
		t.Errorf("syncs = %v", metrics.syncs)
	}
}

func TestCatalogSync_MissingRoot(t *testing.T) {
	stores := memory.New()
	metrics := &recordingMetrics{}
	catalog := newCatalog(t, filepath.Join(t.TempDir(), "nope"), stores, nil, metrics)

	if _, err := catalog.Sync(context.Background()); err == nil {
		t.Fatal("expected error for missing template root")
	}
	if !reflect.DeepEqual(metrics.syncs, []string{"error"}) {
		t.Errorf("syncs = %v", metrics.syncs)
	}
}

func TestCatalogSync_InvalidatesRenderer(t *testing.T) {
	renderer := &countingRenderer{}
	catalog := newCatalog(t, writeTree(t, map[string]string{"pages/a.html": ""}), memory.New(), renderer, nil)

	if _, err := catalog.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	if renderer.invalidated != 2 {
		t.Errorf("Invalidate called %d times, want 2", renderer.invalidated)
	}
}

func TestCatalogSync_Canceled(t *testing.T) {
	stores := memory.New()
	metrics := &recordingMetrics{}
	catalog := newCatalog(t, writeTree(t, catalogTree), stores, nil, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := catalog.Sync(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	defs, _ := stores.Templates.ListTemplates(context.Background())
	if len(defs) != 0 {
		t.Errorf("canceled sync wrote %d templates", len(defs))
	}
	if !reflect.DeepEqual(metrics.syncs, []string{"canceled"}) {
		t.Errorf("syncs = %v", metrics.syncs)
	}
}

// blockingTemplateStore parks the first upsert until released.
type blockingTemplateStore struct {
	*memory.TemplateStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingTemplateStore) UpsertTemplate(ctx context.Context, d ports.TemplateDefinition) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.TemplateStore.UpsertTemplate(ctx, d)
}

func TestCatalogSync_RejectsConcurrentSync(t *testing.T) {
	stores := memory.New()
	blocking := &blockingTemplateStore{
		TemplateStore: stores.Templates,
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	catalog := app.NewCatalogService(
		os.DirFS(writeTree(t, catalogTree)),
		blocking,
		stores.ContentTypes,
		nil,
		clock.System,
		idgen.NewSequential("tpl"),
		nil,
		zerolog.Nop(),
		app.CatalogConfig{},
	)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := catalog.Sync(ctx)
		done <- err
	}()
	<-blocking.entered

	if !catalog.Running() {
		t.Error("Running() = false during sync")
	}
	if _, err := catalog.Sync(ctx); !errors.Is(err, app.ErrSyncInProgress) {
		t.Errorf("second Sync error = %v, want ErrSyncInProgress", err)
	}

	close(blocking.release)
	if err := <-done; err != nil {
		t.Fatalf("first Sync error: %v", err)
	}
	if _, err := catalog.Sync(ctx); err != nil {
		t.Errorf("Sync after completion: %v", err)
	}
}

func TestEnsureSystemTypes(t *testing.T) {
	stores := memory.New()
	catalog := newCatalog(t, t.TempDir(), stores, nil, nil)
	ctx := context.Background()

	if err := catalog.EnsureSystemTypes(ctx); err != nil {
		t.Fatal(err)
	}
	if err := catalog.EnsureSystemTypes(ctx); err != nil {
		t.Fatal(err)
	}
	types, _ := stores.ContentTypes.ListContentTypes(ctx)
	if len(types) != 3 {
		t.Fatalf("got %d types, want 3", len(types))
	}
	for _, ct := range types {
		if !ct.IsSystem {
			t.Errorf("%s not marked system", ct.Name)
		}
	}
}

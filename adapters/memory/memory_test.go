package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/contentgate/adapters/memory"
	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/ports"
)

// TemplateStore tests

func TestTemplateStore_Upsert(t *testing.T) {
	store := memory.NewTemplateStore()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	def := ports.TemplateDefinition{
		ID: "t1", Path: "pages/about", Name: "About", ContentType: "pages",
		Regions:  []region.Spec{{Name: "body", Type: region.TypeRichText, Label: "Body"}},
		Checksum: "x", UpdatedAt: t0,
	}
	if err := store.UpsertTemplate(ctx, def); err != nil {
		t.Fatalf("UpsertTemplate failed: %v", err)
	}

	same := def
	same.ID = "t2"
	same.UpdatedAt = t0.Add(time.Minute)
	if err := store.UpsertTemplate(ctx, same); err != nil {
		t.Fatal(err)
	}

	got, err := store.FindTemplateByPath(ctx, "pages/about")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "t1" || !got.UpdatedAt.Equal(t0) {
		t.Errorf("unchanged upsert modified row: %+v", got)
	}

	changed := same
	changed.Name = "About Us"
	if err := store.UpsertTemplate(ctx, changed); err != nil {
		t.Fatal(err)
	}
	got, _ = store.FindTemplateByPath(ctx, "pages/about")
	if got.Name != "About Us" || !got.UpdatedAt.Equal(same.UpdatedAt) {
		t.Errorf("changed upsert = %+v", got)
	}
}

func TestTemplateStore_ReturnsCopies(t *testing.T) {
	store := memory.NewTemplateStore()
	ctx := context.Background()

	err := store.UpsertTemplate(ctx, ports.TemplateDefinition{
		Path: "pages/home", Regions: []region.Spec{{Name: "title", Type: region.TypeText}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.FindTemplateByPath(ctx, "pages/home")
	if err != nil {
		t.Fatal(err)
	}
	got.Regions[0].Name = "mutated"

	again, _ := store.FindTemplateByPath(ctx, "pages/home")
	if again.Regions[0].Name != "title" {
		t.Error("store leaked its internal slice")
	}

	if _, err := store.FindTemplateByPath(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateStore_ListOrdered(t *testing.T) {
	store := memory.NewTemplateStore()
	ctx := context.Background()
	for _, p := range []string{"products/detail", "blocks/cta", "pages/about"} {
		if err := store.UpsertTemplate(ctx, ports.TemplateDefinition{Path: p}); err != nil {
			t.Fatal(err)
		}
	}

	defs, _ := store.ListTemplates(ctx)
	if len(defs) != 3 || defs[0].Path != "blocks/cta" || defs[2].Path != "products/detail" {
		t.Errorf("defs = %+v", defs)
	}
}

// ContentTypeStore tests

func TestContentTypeStore_InsertIfAbsent(t *testing.T) {
	store := memory.NewContentTypeStore()
	ctx := context.Background()

	if err := store.UpsertContentType(ctx, content.Type{Name: "pages", Label: "Original"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertContentType(ctx, content.Type{Name: "pages", Label: "Replacement"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertContentType(ctx, content.NewType("events")); err != nil {
		t.Fatal(err)
	}

	types, _ := store.ListContentTypes(ctx)
	if len(types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(types))
	}
	if types[0].Name != "events" || types[1].Label != "Original" {
		t.Errorf("types = %+v", types)
	}
}

// ContentStore tests

func TestContentStore_SlugLookup(t *testing.T) {
	store := memory.NewContentStore()
	ctx := context.Background()

	if err := store.SaveContent(ctx, content.Record{ID: "c1", Module: "pages", Slug: "about", Title: "About"}); err != nil {
		t.Fatal(err)
	}

	r, err := store.FindContentBySlug(ctx, "/about")
	if err != nil {
		t.Fatalf("FindContentBySlug failed: %v", err)
	}
	if r.ID != "c1" || r.Data != "{}" {
		t.Errorf("record = %+v", r)
	}

	// Renaming frees the old slug.
	if err := store.SaveContent(ctx, content.Record{ID: "c1", Module: "pages", Slug: "/about-us", Title: "About"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.FindContentBySlug(ctx, "/about"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("old slug still resolves: %v", err)
	}

	err = store.SaveContent(ctx, content.Record{ID: "c2", Module: "pages", Slug: "/about-us"})
	if err == nil {
		t.Error("expected duplicate slug to be rejected")
	}
}

func TestContentStore_ModuleRecords(t *testing.T) {
	store := memory.NewContentStore()
	ctx := context.Background()

	if err := store.SaveContent(ctx, content.Record{ID: "c1", Module: "products", Slug: "/products/mug"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveProduct(ctx, content.Product{ID: "p1", ContentID: "c1", Status: content.StatusActive}); err != nil {
		t.Fatal(err)
	}
	if err := store.SavePage(ctx, content.Page{ContentID: "missing"}); err == nil {
		t.Error("expected error for page without content")
	}

	mr, err := store.FindModuleRecordByContentID(ctx, content.KindProduct, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if p := mr.(*content.Product); p.Currency != "USD" {
		t.Errorf("Currency = %q, want default USD", p.Currency)
	}

	if _, err := store.FindModuleRecordByContentID(ctx, content.KindPage, "c1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContentStore_ListPublishedBlocks(t *testing.T) {
	store := memory.NewContentStore()
	ctx := context.Background()

	if err := store.SaveContent(ctx, content.Record{ID: "b1", Module: "blocks", Slug: "/blocks/promo"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveContent(ctx, content.Record{ID: "b2", Module: "blocks", Slug: "/blocks/cta"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveContent(ctx, content.Record{ID: "b3", Module: "blocks", Slug: "/blocks/wip"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveBlock(ctx, content.Block{ContentID: "b1", Status: content.StatusPublished}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveBlock(ctx, content.Block{ContentID: "b2", Status: content.StatusPublished}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveBlock(ctx, content.Block{ContentID: "b3", Status: content.StatusDraft}); err != nil {
		t.Fatal(err)
	}

	blocks, _ := store.ListPublishedBlocks(ctx)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Content.Slug != "/blocks/cta" {
		t.Errorf("blocks not ordered by slug: %+v", blocks)
	}
}

func TestContentStore_ListByModule(t *testing.T) {
	store := memory.NewContentStore()
	ctx := context.Background()

	if err := store.SaveContent(ctx, content.Record{ID: "1", Module: "products", Slug: "/b", Title: "B"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveContent(ctx, content.Record{ID: "2", Module: "products", Slug: "/a", Title: "A"}); err != nil {
		t.Fatal(err)
	}

	records, _ := store.ListContentByModule(ctx, "products")
	if len(records) != 2 || records[0].Title != "A" {
		t.Errorf("records = %+v", records)
	}
}

// MenuStore / SettingsStore tests

func TestMenuStore(t *testing.T) {
	store := memory.NewMenuStore()
	store.Append("main", ports.MenuItem{Label: "Home", URL: "/"}, ports.MenuItem{Label: "Shop", URL: "/products"})

	menus, _ := store.ListMenus(context.Background())
	menus["main"][0].Label = "mutated"

	again, _ := store.ListMenus(context.Background())
	if again["main"][0].Label != "Home" || len(again["main"]) != 2 {
		t.Errorf("main = %+v", again["main"])
	}
}

func TestSettingsStore(t *testing.T) {
	store := memory.NewSettingsStore()
	ctx := context.Background()

	if err := store.Set(ctx, "site.name", "Acme"); err != nil {
		t.Fatal(err)
	}
	all, _ := store.GetAll(ctx)
	all["site.name"] = "mutated"

	again, _ := store.GetAll(ctx)
	if again.Get("site.name") != "Acme" {
		t.Errorf("site.name = %q", again.Get("site.name"))
	}
}

func TestNew(t *testing.T) {
	s := memory.New()
	if s.Templates == nil || s.ContentTypes == nil || s.Content == nil || s.Menus == nil || s.Settings == nil {
		t.Error("New left a store nil")
	}
}

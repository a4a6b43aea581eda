package app_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/artpar/contentgate/adapters/render"
	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/domain/settings"
	"github.com/artpar/contentgate/ports"
	"github.com/rs/zerolog"
)

func (f *fixture) blockTable() *app.BlockTable {
	f.t.Helper()
	table, err := app.NewBlockTable(context.Background(), f.stores.Content, f.stores.Templates, f.renderer, f.site.Site(), f.metrics, zerolog.Nop())
	if err != nil {
		f.t.Fatalf("NewBlockTable error: %v", err)
	}
	return table
}

func TestRenderBlock_MissingSlug(t *testing.T) {
	f := newFixture(t)
	f.block("b1", "/blocks/cta", "blocks/cta", `{"text":"Buy"}`)

	for _, slug := range []string{"missing-slug", "", "/blocks/other"} {
		if got := f.blockTable().RenderBlock(slug); got != "" {
			t.Errorf("RenderBlock(%q) = %q, want empty", slug, got)
		}
	}
	if f.metrics.lookups[0] != "miss" {
		t.Errorf("lookups = %v", f.metrics.lookups)
	}
}

func TestRenderBlock_EmptyTable(t *testing.T) {
	f := newFixture(t)
	table := f.blockTable()
	if table.Len() != 0 {
		t.Fatalf("Len = %d", table.Len())
	}
	if got := table.RenderBlock("missing-slug"); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestRenderBlock_SlugForms(t *testing.T) {
	f := newFixture(t)
	f.block("b1", "/blocks/cta", "blocks/cta", `{"text":"Buy"}`)
	f.block("b2", "/promo", "blocks/cta", `{"text":"Sale"}`)
	table := f.blockTable()

	tests := []struct {
		slug, want string
	}{
		{"cta", "<a>Buy</a>"},
		{"/cta", "<a>Buy</a>"},
		{"/blocks/cta", "<a>Buy</a>"},
		{"promo", "<a>Sale</a>"},
		{"/promo", "<a>Sale</a>"},
	}
	for _, tt := range tests {
		if got := string(table.RenderBlock(tt.slug)); got != tt.want {
			t.Errorf("RenderBlock(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

func TestRenderBlock_UsesBlockSchema(t *testing.T) {
	f := newFixture(t)
	f.fsys["blocks/banner.html"] = &fstest.MapFile{Data: []byte(`{{if .Fields.show}}<div>{{.Fields.html}}</div>{{end}}`)}
	err := f.stores.Templates.UpsertTemplate(context.Background(), ports.TemplateDefinition{
		Path: "blocks/banner",
		Regions: []region.Spec{
			{Name: "show", Type: region.TypeCheckbox},
			{Name: "html", Type: region.TypeRichText},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.block("b1", "/blocks/banner", "blocks/banner", `{"show":"true","html":"<em>hi</em>"}`)

	if got := f.blockTable().RenderBlock("banner"); got != "<div><em>hi</em></div>" {
		t.Errorf("got %q", got)
	}
}

func TestRenderBlock_Degrades(t *testing.T) {
	f := newFixture(t)
	f.fsys["blocks/broken.html"] = &fstest.MapFile{Data: []byte(`{{.Data.x.y.z}}`)}
	f.block("notpl", "/blocks/notpl", "", `{}`)
	f.block("gone", "/blocks/gone", "blocks/deleted", `{}`)
	f.block("broken", "/blocks/broken", "blocks/broken", `{"x":1}`)
	f.fsys["blocks/safe.html"] = &fstest.MapFile{Data: []byte(`<a>{{with .Data.text}}{{.}}{{end}}</a>`)}
	f.block("bad", "/blocks/bad", "blocks/safe", `{oops`)
	table := f.blockTable()

	for _, slug := range []string{"notpl", "gone", "broken"} {
		if got := table.RenderBlock(slug); got != "" {
			t.Errorf("RenderBlock(%q) = %q, want empty", slug, got)
		}
	}
	if got := table.RenderBlock("bad"); got != "<a></a>" {
		t.Errorf("malformed data should render with empty fields, got %q", got)
	}
	if f.metrics.parseErrors != 1 {
		t.Errorf("parse errors = %d", f.metrics.parseErrors)
	}
}

func TestRenderBlock_RecursionGuard(t *testing.T) {
	f := newFixture(t)
	f.fsys["blocks/loop.html"] = &fstest.MapFile{Data: []byte(`[{{renderBlock "loop"}}]`)}
	f.fsys["blocks/outer.html"] = &fstest.MapFile{Data: []byte(`<o>{{renderBlock "cta"}}</o>`)}
	f.block("loop", "/blocks/loop", "blocks/loop", `{}`)
	f.block("outer", "/blocks/outer", "blocks/outer", `{}`)
	f.block("cta", "/blocks/cta", "blocks/cta", `{"text":"in"}`)
	table := f.blockTable()

	if got := table.RenderBlock("loop"); got != "[]" {
		t.Errorf("recursive embed = %q, want []", got)
	}
	if got := table.RenderBlock("outer"); got != "<o><a>in</a></o>" {
		t.Errorf("nested embed = %q", got)
	}
}

func TestBlockTable_RebuiltPerRequest(t *testing.T) {
	f := newFixture(t)
	before := f.blockTable()

	f.block("b1", "/blocks/cta", "blocks/cta", `{"text":"New"}`)
	after := f.blockTable()

	if before.RenderBlock("cta") != "" {
		t.Error("table built before the edit must not see the new block")
	}
	if after.RenderBlock("cta") != "<a>New</a>" {
		t.Error("fresh table should see the new block")
	}
}

// failingBlocks fails to list blocks.
type failingBlocks struct{ ports.ContentStore }

func (failingBlocks) ListPublishedBlocks(ctx context.Context) ([]content.PublishedBlock, error) {
	return nil, errors.New("connection reset")
}

func TestNewBlockTable_StorageError(t *testing.T) {
	_, err := app.NewBlockTable(context.Background(), failingBlocks{}, nil, render.New(fstest.MapFS{}, ".html"), settings.Site{}, nil, zerolog.Nop())
	var storeErr *app.StorageError
	if !errors.As(err, &storeErr) {
		t.Errorf("expected StorageError, got %v", err)
	}
}

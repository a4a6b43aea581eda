package app

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"

	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/domain/settings"
	"github.com/artpar/contentgate/ports"
	"github.com/rs/zerolog"
)

// Block lookup results reported to metrics.
const (
	blockHit       = "hit"
	blockMiss      = "miss"
	blockError     = "error"
	blockRecursive = "recursive"
)

// BlockContext is the data a block template renders with.
type BlockContext struct {
	Block   content.Block
	Content content.Record
	Data    map[string]any
	Fields  map[string]any
	Site    settings.Site
}

// BlockTable renders published blocks by slug. It is built for a single
// request and must not be shared across requests or goroutines.
type BlockTable struct {
	ctx       context.Context
	bySlug    map[string]content.PublishedBlock
	renderer  ports.Renderer
	templates ports.TemplateStore
	site      settings.Site
	metrics   ports.Metrics
	logger    zerolog.Logger

	stack []string // slugs currently being rendered
}

// NewBlockTable loads every published block. ctx bounds the schema
// lookups made while blocks render.
func NewBlockTable(
	ctx context.Context,
	store ports.ContentStore,
	templates ports.TemplateStore,
	renderer ports.Renderer,
	site settings.Site,
	metrics ports.Metrics,
	logger zerolog.Logger,
) (*BlockTable, error) {
	published, err := store.ListPublishedBlocks(ctx)
	if err != nil {
		return nil, storageErr("list published blocks", err)
	}
	return newBlockTable(ctx, published, templates, renderer, site, metrics, logger), nil
}

func newBlockTable(
	ctx context.Context,
	published []content.PublishedBlock,
	templates ports.TemplateStore,
	renderer ports.Renderer,
	site settings.Site,
	metrics ports.Metrics,
	logger zerolog.Logger,
) *BlockTable {
	bySlug := make(map[string]content.PublishedBlock, len(published))
	for _, b := range published {
		bySlug[b.Content.Slug] = b
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &BlockTable{
		ctx:       ctx,
		bySlug:    bySlug,
		renderer:  renderer,
		templates: templates,
		site:      site,
		metrics:   metrics,
		logger:    logger.With().Str("service", "blocks").Logger(),
	}
}

// Len returns the number of published blocks in the table.
func (t *BlockTable) Len() int { return len(t.bySlug) }

// Lookup finds a block by slug. "cta", "/cta" and "/blocks/cta" all match
// a block stored under any of those slugs, tried in that order.
func (t *BlockTable) Lookup(slug string) (content.PublishedBlock, bool) {
	bare := strings.TrimPrefix(strings.TrimSpace(slug), "/")
	for _, candidate := range []string{slug, "/" + bare, "/" + content.TypeBlocks + "/" + bare} {
		if b, ok := t.bySlug[candidate]; ok {
			return b, true
		}
	}
	return content.PublishedBlock{}, false
}

// RenderBlock renders the block's assigned template with the block's data.
// It never fails: unknown slugs, missing templates, render errors and
// recursive embeds all render as empty and log a warning.
func (t *BlockTable) RenderBlock(slug string) template.HTML {
	log := t.logger.With().Str("slug", slug).Logger()

	b, ok := t.Lookup(slug)
	if !ok {
		t.metrics.BlockLookup(blockMiss)
		log.Warn().Msg("block not found")
		return ""
	}

	for _, active := range t.stack {
		if active == b.Content.Slug {
			t.metrics.BlockLookup(blockRecursive)
			log.Warn().Strs("stack", t.stack).Msg("recursive block embed skipped")
			return ""
		}
	}

	if b.Block.Template == "" {
		t.metrics.BlockLookup(blockError)
		log.Warn().Msg("block has no template assigned")
		return ""
	}

	data, ok := b.Content.Fields()
	if !ok {
		t.metrics.RecordParseError()
		log.Warn().Str("content_id", b.Content.ID).Msg("malformed block data, rendering with empty fields")
	}

	bc := BlockContext{
		Block:   b.Block,
		Content: b.Content,
		Data:    data,
		Fields:  content.ShapeFields(t.regions(b.Block.Template), data),
		Site:    t.site,
	}

	t.stack = append(t.stack, b.Content.Slug)
	var buf bytes.Buffer
	err := t.renderer.Render(&buf, b.Block.Template, bc, t)
	t.stack = t.stack[:len(t.stack)-1]

	if err != nil {
		t.metrics.BlockLookup(blockError)
		log.Warn().Err(err).Str("template", b.Block.Template).Msg("block render failed")
		return ""
	}

	t.metrics.BlockLookup(blockHit)
	return template.HTML(buf.String())
}

func (t *BlockTable) regions(templatePath string) []region.Spec {
	if t.templates == nil {
		return nil
	}
	def, err := t.templates.FindTemplateByPath(t.ctx, templatePath)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			t.logger.Warn().Err(err).Str("template", templatePath).Msg("block schema lookup failed")
		}
		return nil
	}
	return def.Regions
}

var _ ports.BlockRenderer = (*BlockTable)(nil)

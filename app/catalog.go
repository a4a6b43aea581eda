package app

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/artpar/contentgate/domain/content"
	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/ports"
	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

// Reserved directories of the template tree.
const (
	layoutsDir = "layouts"
	blocksDir  = content.TypeBlocks
)

// CatalogConfig contains configuration for CatalogService.
type CatalogConfig struct {
	Extension     string // template file extension, including the dot
	DefaultModule string // content type of root-level templates
	Workers       int    // parallel file parsers
}

// SkippedFile is a template file the sync could not read.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// SyncResult summarizes one catalog sync.
type SyncResult struct {
	Templates    []region.TemplateSchema `json:"templates"`
	Created      int                     `json:"created"`
	Updated      int                     `json:"updated"`
	Unchanged    int                     `json:"unchanged"`
	ContentTypes []string                `json:"content_types_registered"`
	Skipped      []SkippedFile           `json:"skipped"`
	Duration     time.Duration           `json:"duration_ns"`
}

// CatalogService discovers template schemas and persists them.
type CatalogService struct {
	fsys      fs.FS
	templates ports.TemplateStore
	types     ports.ContentTypeStore
	renderer  ports.Renderer
	clock     ports.Clock
	ids       ports.IDGenerator
	metrics   ports.Metrics
	logger    zerolog.Logger
	cfg       CatalogConfig

	running atomic.Bool
}

// NewCatalogService creates a catalog service over the template tree fsys.
// renderer may be nil; when set its cache is invalidated after every sync.
func NewCatalogService(
	fsys fs.FS,
	templates ports.TemplateStore,
	types ports.ContentTypeStore,
	renderer ports.Renderer,
	clock ports.Clock,
	ids ports.IDGenerator,
	metrics ports.Metrics,
	logger zerolog.Logger,
	cfg CatalogConfig,
) *CatalogService {
	if cfg.Extension == "" {
		cfg.Extension = ".html"
	}
	if cfg.DefaultModule == "" {
		cfg.DefaultModule = content.TypePages
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &CatalogService{
		fsys:      fsys,
		templates: templates,
		types:     types,
		renderer:  renderer,
		clock:     clock,
		ids:       ids,
		metrics:   metrics,
		logger:    logger.With().Str("service", "catalog").Logger(),
		cfg:       cfg,
	}
}

// EnsureSystemTypes registers the built-in content types if absent.
func (s *CatalogService) EnsureSystemTypes(ctx context.Context) error {
	for _, t := range content.SystemTypes() {
		if err := s.types.UpsertContentType(ctx, t); err != nil {
			return fmt.Errorf("register content type %s: %w", t.Name, err)
		}
	}
	return nil
}

// Running reports whether a sync is in progress.
func (s *CatalogService) Running() bool {
	return s.running.Load()
}

// Sync walks the template tree, extracts every template's regions, upserts
// the definitions keyed by path and registers newly seen content types.
// A sync requested while another runs fails with ErrSyncInProgress.
func (s *CatalogService) Sync(ctx context.Context) (SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return SyncResult{}, ErrSyncInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	result, err := s.sync(ctx)
	result.Duration = time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "canceled"
		}
	}
	s.metrics.ObserveSync(status, result.Duration, len(result.Templates), len(result.Skipped))

	if s.renderer != nil {
		s.renderer.Invalidate()
	}

	if err != nil {
		s.logger.Error().Err(err).Dur("duration", result.Duration).Msg("catalog sync failed")
		return result, err
	}
	s.logger.Info().
		Int("templates", len(result.Templates)).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", len(result.Skipped)).
		Strs("new_types", result.ContentTypes).
		Dur("duration", result.Duration).
		Msg("catalog synced")
	return result, nil
}

type templateFile struct {
	file        string // path within fsys
	path        string // template path, extension stripped
	contentType string
}

type parsedTemplate struct {
	def     ports.TemplateDefinition
	skipped *SkippedFile
}

func (s *CatalogService) sync(ctx context.Context) (SyncResult, error) {
	result := SyncResult{Templates: []region.TemplateSchema{}, ContentTypes: []string{}, Skipped: []SkippedFile{}}

	pages, err := s.walk(ctx, ".", s.pageContentType, layoutsDir, blocksDir)
	if err != nil {
		return result, err
	}
	blocks, err := s.walk(ctx, blocksDir, func(string) string { return content.TypeBlocks })
	if err != nil {
		return result, err
	}
	files := append(pages, blocks...)
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })

	parsed, err := s.parse(ctx, files)
	if err != nil {
		return result, err
	}

	discovered := make(map[string]bool)
	now := s.clock.Now()
	for _, p := range parsed {
		if p.skipped != nil {
			s.logger.Warn().Str("file", p.skipped.Path).Str("reason", p.skipped.Reason).Msg("template skipped")
			result.Skipped = append(result.Skipped, *p.skipped)
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		def := p.def
		def.ID = s.ids.New()
		def.UpdatedAt = now

		existing, err := s.templates.FindTemplateByPath(ctx, def.Path)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			result.Created++
		case err != nil:
			return result, fmt.Errorf("find template %s: %w", def.Path, err)
		case sameTemplate(existing, def):
			result.Unchanged++
		default:
			result.Updated++
		}

		if err := s.templates.UpsertTemplate(ctx, def); err != nil {
			return result, fmt.Errorf("upsert template %s: %w", def.Path, err)
		}
		discovered[def.ContentType] = true
		result.Templates = append(result.Templates, def.Schema())
	}

	added, err := s.registerTypes(ctx, discovered)
	if err != nil {
		return result, err
	}
	result.ContentTypes = added
	return result, nil
}

// walk collects template files under root. Directories named in skip are
// pruned when they sit directly below root. A missing root yields nothing.
func (s *CatalogService) walk(ctx context.Context, root string, contentType func(string) string, skip ...string) ([]templateFile, error) {
	var files []templateFile

	err := fs.WalkDir(s.fsys, root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) && root != "." {
				return fs.SkipAll
			}
			if p == root {
				return err
			}
			s.logger.Warn().Err(err).Str("path", p).Msg("unreadable template directory skipped")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		name := d.Name()
		if p != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path.Dir(p) == root {
				for _, dir := range skip {
					if name == dir {
						return fs.SkipDir
					}
				}
			}
			return nil
		}
		if path.Ext(name) != s.cfg.Extension {
			return nil
		}

		tplPath := strings.TrimSuffix(p, s.cfg.Extension)
		files = append(files, templateFile{
			file:        p,
			path:        tplPath,
			contentType: contentType(tplPath),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// pageContentType derives a page template's content type from the first
// path segment; root-level templates belong to the default module.
func (s *CatalogService) pageContentType(tplPath string) string {
	dir, _, found := strings.Cut(tplPath, "/")
	if !found {
		return s.cfg.DefaultModule
	}
	return dir
}

// parse reads and extracts files in parallel. Result order matches files.
func (s *CatalogService) parse(ctx context.Context, files []templateFile) ([]parsedTemplate, error) {
	parsed := make([]parsedTemplate, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			markup, err := fs.ReadFile(s.fsys, f.file)
			if err != nil {
				parsed[i] = parsedTemplate{skipped: &SkippedFile{Path: f.file, Reason: err.Error()}}
				return nil
			}
			sum := blake3.Sum256(markup)
			parsed[i] = parsedTemplate{def: ports.TemplateDefinition{
				Path:        f.path,
				Name:        region.DisplayName(f.path),
				ContentType: f.contentType,
				Regions:     region.Extract(string(markup)),
				Checksum:    hex.EncodeToString(sum[:]),
			}}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// registerTypes adds a content type for every discovered name not already
// registered and returns the added names in order.
func (s *CatalogService) registerTypes(ctx context.Context, discovered map[string]bool) ([]string, error) {
	existing, err := s.types.ListContentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list content types: %w", err)
	}
	registry := content.NewRegistry(existing...)

	names := make([]string, 0, len(discovered))
	for name := range discovered {
		names = append(names, name)
	}
	sort.Strings(names)

	added := []string{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		t, isNew := registry.RegisterIfAbsent(name)
		if !isNew {
			continue
		}
		if err := s.types.UpsertContentType(ctx, t); err != nil {
			return added, fmt.Errorf("register content type %s: %w", name, err)
		}
		added = append(added, name)
	}
	return added, nil
}

// sameTemplate compares regions by their encoded form, which is what the
// stores persist.
func sameTemplate(a, b ports.TemplateDefinition) bool {
	if a.Name != b.Name || a.ContentType != b.ContentType || a.Checksum != b.Checksum {
		return false
	}
	ra, errA := json.Marshal(a.Regions)
	rb, errB := json.Marshal(b.Regions)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}

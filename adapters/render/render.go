// Package render executes content templates from a template tree with
// html/template.
//
// Every template set is the requested file plus the shared files under
// layouts/. Pages opt into shared chrome by invoking a layout, for example
// {{template "base" .}}, and filling the blocks it declares with {{define}}.
// Error pages under layouts/ (files named by a status code such as 404.html)
// are never shared.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/contentgate/ports"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// LayoutsDir holds templates shared by every set.
const LayoutsDir = "layouts"

// ErrTemplateNotFound is returned when no file exists for a template path.
var ErrTemplateNotFound = errors.New("template not found")

// Renderer implements ports.Renderer over an fs.FS.
type Renderer struct {
	fsys fs.FS
	ext  string
	md   goldmark.Markdown

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// New creates a renderer reading templates with the given extension
// (including the dot) from fsys.
func New(fsys fs.FS, ext string) *Renderer {
	if ext == "" {
		ext = ".html"
	}
	return &Renderer{
		fsys: fsys,
		ext:  ext,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		cache: make(map[string]*template.Template),
	}
}

// Exists reports whether a template file exists at path.
func (r *Renderer) Exists(templatePath string) bool {
	info, err := fs.Stat(r.fsys, r.file(templatePath))
	return err == nil && !info.IsDir()
}

// Invalidate drops cached parsed templates.
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]*template.Template)
	r.mu.Unlock()
}

// Render executes the template at templatePath with data. The cached set is
// cloned so that renderBlock is bound to blocks for this render only.
func (r *Renderer) Render(w io.Writer, templatePath string, data any, blocks ports.BlockRenderer) error {
	base, err := r.lookup(templatePath)
	if err != nil {
		return err
	}

	tmpl, err := base.Clone()
	if err != nil {
		return fmt.Errorf("clone %s: %w", templatePath, err)
	}
	if blocks != nil {
		tmpl.Funcs(template.FuncMap{"renderBlock": blocks.RenderBlock})
	}

	// Buffer so a failed execution never leaves a partial page on w.
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute %s: %w", templatePath, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (r *Renderer) lookup(templatePath string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.cache[templatePath]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := r.parse(templatePath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[templatePath] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

func (r *Renderer) parse(templatePath string) (*template.Template, error) {
	target := r.file(templatePath)
	src, err := fs.ReadFile(r.fsys, target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", templatePath, ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("read template %s: %w", templatePath, err)
	}

	tmpl := template.New(templatePath).Funcs(r.funcs())

	shared, err := r.sharedFiles(target)
	if err != nil {
		return nil, err
	}
	for _, name := range shared {
		content, err := fs.ReadFile(r.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read layout %s: %w", name, err)
		}
		if _, err := tmpl.New(strings.TrimSuffix(name, r.ext)).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse layout %s: %w", name, err)
		}
	}

	// Parsed last so the page's own {{define}} blocks win.
	if _, err := tmpl.Parse(string(src)); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", templatePath, err)
	}
	return tmpl, nil
}

func (r *Renderer) sharedFiles(target string) ([]string, error) {
	matches, err := fs.Glob(r.fsys, LayoutsDir+"/*"+r.ext)
	if err != nil {
		return nil, fmt.Errorf("glob layouts: %w", err)
	}
	files := matches[:0]
	for _, m := range matches {
		if m == target || isStatusPage(path.Base(m), r.ext) {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

func (r *Renderer) file(templatePath string) string {
	return strings.TrimPrefix(templatePath, "/") + r.ext
}

func isStatusPage(name, ext string) bool {
	stem := strings.TrimSuffix(name, ext)
	if len(stem) != 3 {
		return false
	}
	for _, c := range stem {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		// Rebound per render; unbound renders embed nothing.
		"renderBlock": func(string) template.HTML { return "" },
		"markdown": func(s string) (template.HTML, error) {
			var buf bytes.Buffer
			if err := r.md.Convert([]byte(s), &buf); err != nil {
				return "", err
			}
			return template.HTML(buf.String()), nil
		},
		"default": func(fallback, v any) any {
			if isEmpty(v) {
				return fallback
			}
			return v
		},
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(b), nil
		},
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}

var _ ports.Renderer = (*Renderer)(nil)

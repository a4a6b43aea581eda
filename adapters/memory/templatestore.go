package memory

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/artpar/contentgate/domain/region"
	"github.com/artpar/contentgate/ports"
)

// TemplateStore is an in-memory implementation of ports.TemplateStore.
type TemplateStore struct {
	mu     sync.RWMutex
	byPath map[string]ports.TemplateDefinition
}

// NewTemplateStore creates a new in-memory template store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{byPath: make(map[string]ports.TemplateDefinition)}
}

// FindTemplateByPath retrieves a definition by template path.
func (s *TemplateStore) FindTemplateByPath(ctx context.Context, path string) (ports.TemplateDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.byPath[path]
	if !ok {
		return ports.TemplateDefinition{}, ErrNotFound
	}
	return cloneDefinition(d), nil
}

// UpsertTemplate inserts or replaces the definition keyed by path. The ID
// of an existing definition is kept and UpdatedAt only moves on change.
func (s *TemplateStore) UpsertTemplate(ctx context.Context, d ports.TemplateDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d = cloneDefinition(d)
	if existing, ok := s.byPath[d.Path]; ok {
		d.ID = existing.ID
		if sameDefinition(existing, d) {
			d.UpdatedAt = existing.UpdatedAt
		}
	}
	s.byPath[d.Path] = d
	return nil
}

// ListTemplates returns all definitions ordered by path.
func (s *TemplateStore) ListTemplates(ctx context.Context) ([]ports.TemplateDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]ports.TemplateDefinition, 0, len(s.byPath))
	for _, d := range s.byPath {
		defs = append(defs, cloneDefinition(d))
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Path < defs[j].Path })
	return defs, nil
}

func sameDefinition(a, b ports.TemplateDefinition) bool {
	return a.Name == b.Name &&
		a.ContentType == b.ContentType &&
		a.Checksum == b.Checksum &&
		reflect.DeepEqual(a.Regions, b.Regions)
}

func cloneDefinition(d ports.TemplateDefinition) ports.TemplateDefinition {
	d.Regions = cloneSpecs(d.Regions)
	return d
}

func cloneSpecs(specs []region.Spec) []region.Spec {
	out := make([]region.Spec, len(specs))
	for i, s := range specs {
		if s.Options != nil {
			s.Options = append([]string{}, s.Options...)
		}
		if s.Fields != nil {
			s.Fields = cloneSpecs(s.Fields)
		}
		out[i] = s
	}
	return out
}

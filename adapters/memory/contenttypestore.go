package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/contentgate/domain/content"
)

// ContentTypeStore is an in-memory implementation of ports.ContentTypeStore.
type ContentTypeStore struct {
	mu    sync.RWMutex
	types map[string]content.Type
}

// NewContentTypeStore creates a new in-memory content type store.
func NewContentTypeStore() *ContentTypeStore {
	return &ContentTypeStore{types: make(map[string]content.Type)}
}

// ListContentTypes returns all content types ordered by name.
func (s *ContentTypeStore) ListContentTypes(ctx context.Context) ([]content.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]content.Type, 0, len(s.types))
	for _, t := range s.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

// UpsertContentType stores a content type unless one with the same name
// already exists.
func (s *ContentTypeStore) UpsertContentType(ctx context.Context, t content.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.types[t.Name]; !ok {
		s.types[t.Name] = t
	}
	return nil
}

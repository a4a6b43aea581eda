package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/contentgate/domain/content"
)

// ContentStore is an in-memory implementation of ports.ContentStore.
type ContentStore struct {
	mu       sync.RWMutex
	records  map[string]content.Record // by ID
	bySlug   map[string]string         // slug -> ID
	pages    map[string]content.Page   // by content ID
	products map[string]content.Product
	blocks   map[string]content.Block
}

// NewContentStore creates a new in-memory content store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		records:  make(map[string]content.Record),
		bySlug:   make(map[string]string),
		pages:    make(map[string]content.Page),
		products: make(map[string]content.Product),
		blocks:   make(map[string]content.Block),
	}
}

// FindContentBySlug retrieves exactly one record by its global slug.
func (s *ContentStore) FindContentBySlug(ctx context.Context, slug string) (content.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return content.Record{}, ErrNotFound
	}
	return s.records[id], nil
}

// FindContentByID retrieves a record by ID.
func (s *ContentStore) FindContentByID(ctx context.Context, id string) (content.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return content.Record{}, ErrNotFound
	}
	return r, nil
}

// ListContentByModule returns all records of a module ordered by title.
func (s *ContentStore) ListContentByModule(ctx context.Context, module string) ([]content.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []content.Record{}
	for _, r := range s.records {
		if r.Module == module {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Title != records[j].Title {
			return records[i].Title < records[j].Title
		}
		return records[i].Slug < records[j].Slug
	})
	return records, nil
}

// FindModuleRecordByContentID loads the module record of the given shape
// that references the content record.
func (s *ContentStore) FindModuleRecordByContentID(ctx context.Context, kind content.Kind, contentID string) (content.ModuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch kind {
	case content.KindPage:
		if p, ok := s.pages[contentID]; ok {
			return &p, nil
		}
	case content.KindProduct:
		if p, ok := s.products[contentID]; ok {
			return &p, nil
		}
	case content.KindBlock:
		if b, ok := s.blocks[contentID]; ok {
			return &b, nil
		}
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return nil, ErrNotFound
}

// ListPublishedBlocks returns every published block with its content,
// ordered by slug.
func (s *ContentStore) ListPublishedBlocks(ctx context.Context) ([]content.PublishedBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var blocks []content.PublishedBlock
	for contentID, b := range s.blocks {
		if b.Status != content.StatusPublished {
			continue
		}
		r, ok := s.records[contentID]
		if !ok {
			continue
		}
		blocks = append(blocks, content.PublishedBlock{Content: r, Block: b})
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Content.Slug < blocks[j].Content.Slug })
	return blocks, nil
}

// SaveContent inserts or replaces a content record. Slugs are unique.
func (s *ContentStore) SaveContent(ctx context.Context, r content.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.Slug = content.NormalizeSlug(r.Slug)
	if id, taken := s.bySlug[r.Slug]; taken && id != r.ID {
		return fmt.Errorf("slug %q already in use", r.Slug)
	}
	if old, ok := s.records[r.ID]; ok {
		delete(s.bySlug, old.Slug)
	}
	if r.Data == "" {
		r.Data = "{}"
	}
	s.records[r.ID] = r
	s.bySlug[r.Slug] = r.ID
	return nil
}

// SavePage inserts or replaces a page record.
func (s *ContentStore) SavePage(ctx context.Context, p content.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[p.ContentID]; !ok {
		return fmt.Errorf("content %q: %w", p.ContentID, ErrNotFound)
	}
	s.pages[p.ContentID] = p
	return nil
}

// SaveProduct inserts or replaces a product record.
func (s *ContentStore) SaveProduct(ctx context.Context, p content.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[p.ContentID]; !ok {
		return fmt.Errorf("content %q: %w", p.ContentID, ErrNotFound)
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	s.products[p.ContentID] = p
	return nil
}

// SaveBlock inserts or replaces a block record.
func (s *ContentStore) SaveBlock(ctx context.Context, b content.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[b.ContentID]; !ok {
		return fmt.Errorf("content %q: %w", b.ContentID, ErrNotFound)
	}
	s.blocks[b.ContentID] = b
	return nil
}

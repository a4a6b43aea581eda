// Package memory provides in-memory implementations of the storage ports.
// They back tests and the serve --memory preview mode.
package memory

import "github.com/artpar/contentgate/ports"

// ErrNotFound is returned when an entity is not found.
var ErrNotFound = ports.ErrNotFound

// Stores bundles one of each in-memory store.
type Stores struct {
	Templates    *TemplateStore
	ContentTypes *ContentTypeStore
	Content      *ContentStore
	Menus        *MenuStore
	Settings     *SettingsStore
}

// New creates an empty set of stores.
func New() *Stores {
	return &Stores{
		Templates:    NewTemplateStore(),
		ContentTypes: NewContentTypeStore(),
		Content:      NewContentStore(),
		Menus:        NewMenuStore(),
		Settings:     NewSettingsStore(),
	}
}

var (
	_ ports.TemplateStore    = (*TemplateStore)(nil)
	_ ports.ContentTypeStore = (*ContentTypeStore)(nil)
	_ ports.ContentStore     = (*ContentStore)(nil)
	_ ports.MenuStore        = (*MenuStore)(nil)
	_ ports.SettingsStore    = (*SettingsStore)(nil)
)

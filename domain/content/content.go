// Package content provides the content taxonomy: content types, the shared
// content record, and the closed set of module-specific records.
package content

import (
	"encoding/json"
	"strings"

	"github.com/artpar/contentgate/domain/region"
)

// Reserved content type names.
const (
	TypePages    = "pages"
	TypeProducts = "products"
	TypeBlocks   = "blocks"
)

// Type is a named content module (immutable value type).
type Type struct {
	Name        string
	Label       string
	PluralLabel string
	HasStatus   bool // records carry a draft/published/archived lifecycle
	HasSeo      bool // SEO overrides apply
	IsSystem    bool // protected from deletion
}

// NewType returns a content type with the defaults applied to types
// discovered from the template tree.
func NewType(name string) Type {
	t := Type{
		Name:        name,
		Label:       region.Humanize(singular(name)),
		PluralLabel: region.Humanize(name),
		HasStatus:   true,
		HasSeo:      true,
	}
	if name == TypeBlocks {
		t.HasStatus = false
		t.HasSeo = false
	}
	return t
}

// SystemTypes returns the built-in content types.
func SystemTypes() []Type {
	types := []Type{NewType(TypePages), NewType(TypeProducts), NewType(TypeBlocks)}
	for i := range types {
		types[i].IsSystem = true
	}
	return types
}

func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies") && len(name) > 3:
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "ss"):
		return name
	case strings.HasSuffix(name, "s") && len(name) > 1:
		return strings.TrimSuffix(name, "s")
	default:
		return name
	}
}

// Record is the shared title/slug/field-data row underlying every module record.
type Record struct {
	ID     string
	Module string
	Slug   string // globally unique, always begins with "/"
	Title  string
	Data   string // JSON object keyed by region name
}

// Fields parses the record's field map. Malformed data yields an empty map
// and ok=false; it never fails the caller.
func (r Record) Fields() (map[string]any, bool) {
	return ParseFields(r.Data)
}

// ParseFields decodes a JSON field map. Empty input is a valid empty map.
func ParseFields(data string) (map[string]any, bool) {
	fields := make(map[string]any)
	if strings.TrimSpace(data) == "" {
		return fields, true
	}
	if err := json.Unmarshal([]byte(data), &fields); err != nil || fields == nil {
		return make(map[string]any), false
	}
	return fields, true
}

// NormalizeSlug ensures a slug begins with "/".
func NormalizeSlug(slug string) string {
	slug = strings.TrimSpace(slug)
	if !strings.HasPrefix(slug, "/") {
		slug = "/" + slug
	}
	return slug
}

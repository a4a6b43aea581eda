// Package region provides the value types describing the editable fields a
// template exposes, and the pure extractor that discovers them in markup.
package region

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type is the kind of editor control a region maps to.
type Type string

const (
	TypeText     Type = "text"
	TypeRichText Type = "richtext"
	TypeTextarea Type = "textarea"
	TypeImage    Type = "image"
	TypeCheckbox Type = "checkbox"
	TypeSelect   Type = "select"
	TypeRepeater Type = "repeater"
)

// ParseType returns the matching region type, or TypeText for anything
// outside the vocabulary.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeText, TypeRichText, TypeTextarea, TypeImage, TypeCheckbox, TypeSelect, TypeRepeater:
		return t
	default:
		return TypeText
	}
}

// Spec describes one editable field of a template (immutable value type).
type Spec struct {
	Name        string   `json:"name" yaml:"name"`
	Type        Type     `json:"type" yaml:"type"`
	Label       string   `json:"label" yaml:"label"`
	Required    bool     `json:"required" yaml:"required"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"` // select only
	Fields      []Spec   `json:"fields,omitempty" yaml:"fields,omitempty"`   // repeater only, one level
}

// TemplateSchema is the full field contract of one template file.
type TemplateSchema struct {
	TemplatePath string `json:"template_path" yaml:"template_path"`
	DisplayName  string `json:"display_name" yaml:"display_name"`
	ContentType  string `json:"content_type" yaml:"content_type"`
	Regions      []Spec `json:"regions" yaml:"regions"`
}

// Region returns the region with the given name.
func (s TemplateSchema) Region(name string) (Spec, bool) {
	for _, r := range s.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Spec{}, false
}

// Names returns region names in declaration order.
func (s TemplateSchema) Names() []string {
	names := make([]string, len(s.Regions))
	for i, r := range s.Regions {
		names[i] = r.Name
	}
	return names
}

// Humanize turns an identifier like "hero_title" or "about-us" into "Hero Title".
// Existing capitals are kept, so "SKU_code" becomes "SKU Code".
func Humanize(name string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	s = strings.Join(strings.Fields(s), " ")
	// A Caser carries state, so each call gets its own.
	return cases.Title(language.English, cases.NoLower).String(s)
}

// DisplayName derives a template's display name from its file name.
func DisplayName(templatePath string) string {
	base := path.Base(templatePath)
	return Humanize(strings.TrimSuffix(base, path.Ext(base)))
}

package route_test

import (
	"reflect"
	"testing"

	"github.com/artpar/contentgate/domain/route"
)

type modules map[string]bool

func (m modules) Has(name string) bool { return m[name] }

var known = modules{"pages": true, "products": true, "blocks": true}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/", "/"},
		{"", "/"},
		{"/about/", "/about"},
		{"/about", "/about"},
		{"/about//", "/about/"},
		{"about", "/about"},
	}
	for _, tt := range tests {
		if got := route.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSegments(t *testing.T) {
	if got := route.Segments("/pages//about/"); !reflect.DeepEqual(got, []string{"pages", "about"}) {
		t.Errorf("Segments = %v", got)
	}
	if got := route.Segments("/"); len(got) != 0 {
		t.Errorf("Segments(/) = %v, want empty", got)
	}
	if got := route.FirstSegment("/"); got != "" {
		t.Errorf("FirstSegment(/) = %q", got)
	}
}

func TestWithDefaultPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unprefixed", "/about", "/pages/about"},
		{"nested unprefixed", "/about/team", "/pages/about/team"},
		{"known module", "/products/mug", "/products/mug"},
		{"already default", "/pages/about", "/pages/about"},
		{"module index", "/products", "/products"},
		{"root untouched", "/", "/"},
		{"prefix match is per segment", "/pagesx", "/pages/pagesx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := route.WithDefaultPrefix(tt.in, known, "pages"); got != tt.want {
				t.Errorf("WithDefaultPrefix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := route.WithDefaultPrefix("/about", known, ""); got != "/about" {
		t.Errorf("empty default module should leave path alone, got %q", got)
	}
}

func TestModuleIndex(t *testing.T) {
	tests := []struct {
		in         string
		wantModule string
		wantOK     bool
	}{
		{"/products", "products", true},
		{"/pages", "pages", true},
		{"/products/mug", "", false},
		{"/unknown", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		module, ok := route.ModuleIndex(tt.in, known)
		if module != tt.wantModule || ok != tt.wantOK {
			t.Errorf("ModuleIndex(%q) = %q, %v; want %q, %v", tt.in, module, ok, tt.wantModule, tt.wantOK)
		}
	}
}

func TestIndexTemplate(t *testing.T) {
	if got := route.IndexTemplate("products"); got != "products/index" {
		t.Errorf("IndexTemplate = %q", got)
	}
}

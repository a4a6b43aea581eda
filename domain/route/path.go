// Package route provides the pure path functions used to map a request path
// onto a content slug or a module listing.
package route

import "strings"

// Modules reports whether a name is a known content module.
type Modules interface {
	Has(name string) bool
}

// Normalize strips a single trailing slash unless the path is the root.
// An empty path is treated as the root.
func Normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// Segments splits a path into its non-empty segments.
func Segments(p string) []string {
	parts := strings.Split(p, "/")
	segs := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// FirstSegment returns the first path segment, or "" for the root.
func FirstSegment(p string) string {
	segs := Segments(p)
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

// WithDefaultPrefix prepends the default module's prefix when the path's
// first segment is not a known module. The root path is left alone.
//
//	/about          -> /pages/about
//	/products/mug   -> /products/mug
func WithDefaultPrefix(p string, known Modules, defaultModule string) string {
	if p == "/" || defaultModule == "" {
		return p
	}
	if known.Has(FirstSegment(p)) {
		return p
	}
	return "/" + defaultModule + p
}

// ModuleIndex reports whether the path is a listing request: exactly one
// segment naming a known module.
func ModuleIndex(p string, known Modules) (string, bool) {
	segs := Segments(p)
	if len(segs) != 1 || !known.Has(segs[0]) {
		return "", false
	}
	return segs[0], true
}

// IndexTemplate returns the listing template path for a module.
func IndexTemplate(module string) string {
	return module + "/index"
}

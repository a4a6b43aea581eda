package content

import "sort"

// Registry is an explicit set of content types keyed by name.
// It is not safe for concurrent mutation; callers build one per operation.
type Registry struct {
	types map[string]Type
}

// NewRegistry creates a registry seeded with the given types.
func NewRegistry(types ...Type) *Registry {
	r := &Registry{types: make(map[string]Type, len(types))}
	for _, t := range types {
		r.types[t.Name] = t
	}
	return r
}

// RegisterIfAbsent adds a type with discovery defaults unless one with the
// same name exists. It returns the registered type and whether it was added.
func (r *Registry) RegisterIfAbsent(name string) (Type, bool) {
	if t, ok := r.types[name]; ok {
		return t, false
	}
	t := NewType(name)
	r.types[name] = t
	return t, true
}

// Lookup returns the type with the given name.
func (r *Registry) Lookup(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Has reports whether a type with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.types) }

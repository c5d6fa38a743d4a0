package generation

import (
	"fmt"
	"sort"

	"AutoBlogger/internal/ports"
)

// Registry keeps a mapping from backend names to generator implementations.
type Registry struct {
	backends map[string]ports.Generator
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]ports.Generator{}}
}

// Register adds or replaces a backend.
func (r *Registry) Register(name string, gen ports.Generator) {
	if r.backends == nil {
		r.backends = map[string]ports.Generator{}
	}
	r.backends[name] = gen
}

// Resolve returns a backend by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Generator, error) {
	if gen, ok := r.backends[name]; ok && gen != nil {
		return gen, nil
	}
	return nil, fmt.Errorf("generation backend %s is not registered (have %v)", name, r.Names())
}

// Names lists the registered backends in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package crawler

import (
	"jobsnap/pkg/utils"
)

// Registry maps company names to their site adapters. Registration
// happens once at startup; lookups during crawling are read-only, so no
// locking is needed.
type Registry struct {
	adapters map[string]Adapter
	names    []string
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register inserts an adapter under its declared company name. A
// duplicate name is a programmer error and fails without mutating the
// registry.
func (r *Registry) Register(adapter Adapter) error {
	name := adapter.CompanyName()
	if name == "" {
		return utils.NewValidationError("adapter company name must not be empty")
	}
	if _, exists := r.adapters[name]; exists {
		return utils.NewRegistryCollisionError(name)
	}

	r.adapters[name] = adapter
	r.names = append(r.names, name)
	return nil
}

// Get looks up an adapter by company name
func (r *Registry) Get(name string) (Adapter, bool) {
	adapter, ok := r.adapters[name]
	return adapter, ok
}

// ListNames returns registered company names in registration order
func (r *Registry) ListNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

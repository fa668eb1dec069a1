package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory is a function that creates a new provider instance from configuration.
type Factory func(name string, config map[string]string) (Provider, error)

// Registry maps provider type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// RegisterFactory registers a provider factory for a given type.
// Registering the same type again replaces the previous factory.
func (r *Registry) RegisterFactory(typeName string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
}

// Create builds a provider of the given type.
func (r *Registry) Create(typeName, name string, config map[string]string) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}

	p, err := factory(name, config)
	if err != nil {
		return nil, fmt.Errorf("creating provider %s: %w", name, err)
	}
	return p, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

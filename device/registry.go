// Package device implements the Device facade: a descriptor string
// resolves through a Registry to a backend Factory, producing a Device
// whose typed accessors are built from its backend's catalogue, either
// directly (numeric-addressed) or indirected through a LogicalNameMap.
package device

import (
	"context"
	"sync"

	"devaccess/deverr"
)

// Factory builds a Backend from a parsed Descriptor.
type Factory func(d Descriptor) (Backend, error)

// Registry maps backend kind strings to Factory constructors.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// RegisterBackend registers f under kind. Panics if kind is already
// registered: a duplicate registration is a programming error to catch at
// init time, not a runtime condition to paper over.
func (r *Registry) RegisterBackend(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		panic("device: backend kind already registered: " + kind)
	}
	r.factories[kind] = f
}

// Open parses descriptorString, resolves it to a registered Factory,
// builds and opens the resulting Backend, and returns the Device handle.
func (r *Registry) Open(ctx context.Context, descriptorString string) (*Device, error) {
	d, err := ParseDescriptor(descriptorString)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	factory, ok := r.factories[d.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, deverr.NewLogicf("device", "unknown backend kind: %s", d.Kind)
	}
	backend, err := factory(d)
	if err != nil {
		return nil, err
	}
	if err := backend.Open(ctx); err != nil {
		return nil, err
	}
	return &Device{backend: backend}, nil
}

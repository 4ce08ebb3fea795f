package component

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory creates a zero-valued component instance.
type Factory func() Component

// Definition is a registered component type.
type Definition struct {
	Name   string
	Schema *Schema
	New    Factory
}

// binder is satisfied by components embedding Base.
type binder interface {
	bind(id string, schema *Schema)
}

// Mount creates a new instance with a fresh id.
func (d *Definition) Mount() Component {
	return d.instance(NewID())
}

// Restore creates an instance with the given id and hydrates it from a
// client state that the caller has already verified. Only tracked and
// locked fields are restored.
func (d *Definition) Restore(id string, state map[string]any) (Component, error) {
	c := d.instance(id)
	h, ok := c.(Hydrator)
	if !ok {
		return c, nil
	}
	restorable := state
	if d.Schema != nil {
		restorable = d.Schema.Restorable(state)
	}
	if err := h.Hydrate(restorable); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHydration, d.Name, err)
	}
	return c, nil
}

func (d *Definition) instance(id string) Component {
	c := d.New()
	if b, ok := c.(binder); ok {
		b.bind(id, d.Schema)
	}
	return c
}

// Apply writes client updates, in sorted field order, then invokes calls in
// order. Every write is checked against the schema first; the first
// rejection aborts before any later write.
func (d *Definition) Apply(ctx context.Context, c Component, updates map[string]any, calls []Call) error {
	if len(updates) > 0 {
		setter, ok := c.(Setter)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotSettable, d.Name)
		}
		fields := make([]string, 0, len(updates))
		for f := range updates {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		if d.Schema != nil {
			for _, f := range fields {
				if err := d.Schema.CheckWrite(f); err != nil {
					return err
				}
			}
		}
		for _, f := range fields {
			if err := setter.Set(f, updates[f]); err != nil {
				return fmt.Errorf("component: set %q: %w", f, err)
			}
		}
	}

	if len(calls) > 0 {
		caller, ok := c.(Caller)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotCallable, d.Name)
		}
		for _, call := range calls {
			if err := caller.Call(ctx, call.Method, call.Params); err != nil {
				return fmt.Errorf("component: call %q: %w", call.Method, err)
			}
		}
	}
	return nil
}

// Registry maps component names to definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a component type.
func (r *Registry) Register(name string, schema *Schema, factory Factory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("component: register %q: name and factory are required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.defs[name] = &Definition{Name: name, Schema: schema, New: factory}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, schema *Schema, factory Factory) {
	if err := r.Register(name, schema, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return d, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

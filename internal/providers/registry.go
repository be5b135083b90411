package providers

import "sync"

// Registry holds the fixed, ordered list of configured providers.
// Registration order is configuration order; it determines deterministic
// tie-breaks downstream (the first-registered provider wins field-level
// merge conflicts), so the registry preserves insertion order everywhere.
type Registry struct {
	mu     sync.RWMutex
	order  []Provider
	byName map[string]Provider
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
	}
}

// Register appends a provider to the registry. Registering a provider with
// a name that already exists replaces it in place, keeping its original
// position. This method is thread-safe.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.byName[name]; exists {
		for i, existing := range r.order {
			if existing.Name() == name {
				r.order[i] = p
				break
			}
		}
	} else {
		r.order = append(r.order, p)
	}
	r.byName[name] = p
}

// Get returns a provider by name, or nil if not found.
// This method is thread-safe.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// All returns all registered providers in registration order.
// The returned slice is a snapshot and is safe to iterate even if
// providers are registered concurrently. This method is thread-safe.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.order))
	copy(out, r.order)
	return out
}

// Enabled returns only enabled providers, in registration order.
// The returned slice is a snapshot. This method is thread-safe.
func (r *Registry) Enabled() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, p := range r.order {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the names of all registered providers in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	for i, p := range r.order {
		out[i] = p.Name()
	}
	return out
}

package pipeline

import (
	"github.com/cockroachdb/errors"
)

// Registry holds the plugin set for a run in declaration order. Declaration
// order is the tie-break for execution order, so registration order matters
// for reproducibility.
type Registry struct {
	plugins []Plugin
	byID    map[string]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Plugin)}
}

// Register adds a plugin. Registering the same ID twice is rejected.
func (r *Registry) Register(p Plugin) error {
	if _, exists := r.byID[p.ID()]; exists {
		return errors.Wrapf(ErrDuplicatePlugin, "%q", p.ID())
	}
	r.byID[p.ID()] = p
	r.plugins = append(r.plugins, p)
	return nil
}

// MustRegister registers a plugin and panics on duplicate IDs. Intended for
// the static default registry, where a duplicate is a programming error.
func (r *Registry) MustRegister(p Plugin) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Plugins returns the registered plugins in declaration order.
func (r *Registry) Plugins() []Plugin {
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Lookup returns the plugin with the given ID.
func (r *Registry) Lookup(id string) (Plugin, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int { return len(r.plugins) }

package detect

import (
	"fmt"
	"sort"

	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// Registry is a name -> (descriptor, factory) lookup, populated once at
// process start and read-only thereafter.
type Registry struct {
	descriptors map[string]DetectorDescriptor
	factories   map[string]Factory
}

// NewRegistry returns an empty registry. Callers register detectors then
// treat the registry as immutable.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]DetectorDescriptor),
		factories:   make(map[string]Factory),
	}
}

// Register adds a detector under its descriptor's name. Registering the
// same name twice overwrites the earlier entry; callers populate the
// registry once at init, so this is a programmer error, not a runtime
// condition the caller must check for.
func (r *Registry) Register(d DetectorDescriptor, f Factory) {
	r.descriptors[d.Name] = d
	r.factories[d.Name] = f
}

// List returns descriptors ordered by priority ascending, then name
// ascending.
func (r *Registry) List() []DetectorDescriptor {
	out := make([]DetectorDescriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Descriptor returns the descriptor for name, or false if unknown.
func (r *Registry) Descriptor(name string) (DetectorDescriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Instantiate builds a Detector for name bound to cfg.
func (r *Registry) Instantiate(name string, cfg Config) (Detector, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, xerrors.NotFound("registry.Instantiate", fmt.Sprintf("unknown detector %q", name))
	}
	det, err := factory(cfg)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "registry.Instantiate",
			fmt.Sprintf("detector construction failed for %q", name), err)
	}
	return det, nil
}

// SuppressionGraph derives the suppression adjacency from registered
// descriptors: edge A -> B means "A firing suppresses B".
func (r *Registry) SuppressionGraph() map[string]map[string]struct{} {
	graph := make(map[string]map[string]struct{}, len(r.descriptors))
	for name, d := range r.descriptors {
		set := make(map[string]struct{}, len(d.Suppresses))
		for _, s := range d.Suppresses {
			set[s] = struct{}{}
		}
		graph[name] = set
	}
	return graph
}

// Names returns every registered detector name, unordered.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	return names
}

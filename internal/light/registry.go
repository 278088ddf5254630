package light

import "github.com/moonlitstudios/backlot/internal/geo"

// Provider yields the lights an owner emits this frame.
type Provider func(darkness float64) []Source

type entry struct {
	name    string
	provide Provider
}

// Registry gathers lights from named providers in registration order.
type Registry struct {
	entries []entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider. Registering a name twice replaces the first.
func (r *Registry) Register(name string, p Provider) {
	for i := range r.entries {
		if r.entries[i].name == name {
			r.entries[i].provide = p
			return
		}
	}
	r.entries = append(r.entries, entry{name: name, provide: p})
}

// Names lists providers in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Collect returns every light, lit or not, stamping the provider name as
// owner where none was set.
func (r *Registry) Collect(darkness float64) []Source {
	var out []Source
	for _, e := range r.entries {
		for _, s := range e.provide(darkness) {
			if s.Owner == "" {
				s.Owner = e.name
			}
			out = append(out, s)
		}
	}
	return out
}

// Active returns the lights that contribute at this darkness.
func (r *Registry) Active(darkness float64) []Source {
	var out []Source
	for _, s := range r.Collect(darkness) {
		if s.Lit(darkness) {
			out = append(out, s)
		}
	}
	return out
}

// Cull drops lights that cannot reach view.
func Cull(sources []Source, view geo.Rect) []Source {
	out := sources[:0:0]
	for _, s := range sources {
		if s.Visible(view) {
			out = append(out, s)
		}
	}
	return out
}

package extension

import "sort"

// Registry holds the known extension kinds by name.
type Registry struct {
	kinds map[string]Kind
}

func NewRegistry(kinds ...Kind) *Registry {
	r := &Registry{kinds: make(map[string]Kind, len(kinds))}
	for _, kind := range kinds {
		r.kinds[kind.Spec().Name] = kind
	}
	return r
}

func (r *Registry) Get(name string) (Kind, bool) {
	kind, ok := r.kinds[name]
	return kind, ok
}

// Specs returns the specs of all kinds sorted by name.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.kinds))
	for _, kind := range r.kinds {
		specs = append(specs, kind.Spec())
	}
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Name < specs[j].Name
	})
	return specs
}

package registry

// Entry pairs a descriptor with the factory that constructs the component.
// The factory's concrete type depends on the kind (fetch.Factory,
// provider.Factory, ...); callers assert it back when instantiating.
type Entry struct {
	Descriptor Descriptor
	Factory    any
}

// Registry maintains, per kind, a mapping from unique name to component
// entry. Registration happens once at startup before request handling begins;
// after that the registry is read-only, so lookups need no locking.
type Registry struct {
	entries  map[Kind]map[string]*Entry
	order    map[Kind][]string
	failures []Descriptor
}

// New returns an empty registry. Tests construct isolated registries so state
// never leaks between cases.
func New() *Registry {
	return &Registry{
		entries: make(map[Kind]map[string]*Entry),
		order:   make(map[Kind][]string),
	}
}

// Register adds a component under its (kind, name) pair. It returns a
// DuplicateRegistrationError when the name is already taken for the kind; the
// earlier registration stays active.
func (r *Registry) Register(d Descriptor, factory any) error {
	byName := r.entries[d.Kind]
	if byName == nil {
		byName = make(map[string]*Entry)
		r.entries[d.Kind] = byName
	}
	if _, exists := byName[d.Name]; exists {
		return &DuplicateRegistrationError{Kind: d.Kind, Name: d.Name}
	}
	byName[d.Name] = &Entry{Descriptor: d, Factory: factory}
	r.order[d.Kind] = append(r.order[d.Kind], d.Name)
	return nil
}

// RecordFailure remembers a registration that was rejected or a plugin that
// failed to load, for surfacing in diagnostics. The descriptor must carry a
// non-empty LoadError.
func (r *Registry) RecordFailure(d Descriptor) {
	r.failures = append(r.failures, d)
}

// Failures returns descriptors of components that could not be registered.
func (r *Registry) Failures() []Descriptor {
	out := make([]Descriptor, len(r.failures))
	copy(out, r.failures)
	return out
}

// Get returns the entry for (kind, name) or a NotFoundError.
func (r *Registry) Get(kind Kind, name string) (*Entry, error) {
	if e, ok := r.entries[kind][name]; ok {
		return e, nil
	}
	return nil, &NotFoundError{Kind: kind, Name: name}
}

// List returns all entries of a kind in registration order: built-ins in
// their fixed code order first, then discovered plugins. The order is
// deterministic across restarts and is used directly for UI listing.
func (r *Registry) List(kind Kind) []*Entry {
	names := r.order[kind]
	out := make([]*Entry, 0, len(names))
	for _, n := range names {
		out = append(out, r.entries[kind][n])
	}
	return out
}

// Find returns the first entry of the kind whose descriptor satisfies pred.
// First match wins, so registration order is an implicit priority order.
func (r *Registry) Find(kind Kind, pred func(Descriptor) bool) (*Entry, bool) {
	for _, n := range r.order[kind] {
		e := r.entries[kind][n]
		if pred(e.Descriptor) {
			return e, true
		}
	}
	return nil, false
}

package registry

import (
	"fmt"
	"sort"

	"github.com/reconly/reconly/core/logx"
)

// DiscoveredPlugin is one externally discovered component. Discovery itself
// (scanning, import resolution) is a collaborator; the loader only consumes
// the resulting sequence.
type DiscoveredPlugin struct {
	Kind Kind
	Name string

	// Build constructs the descriptor and factory. A returned error or a
	// panic marks the plugin unavailable without aborting the rest of the
	// load.
	Build func() (Descriptor, any, error)
}

// LoadPlugins registers discovered plugins after the built-ins. Plugins are
// sorted by name within the discovery sequence so enumeration order stays
// deterministic across restarts. A plugin that fails to build is registered
// as a placeholder descriptor carrying the load error; a plugin whose name
// collides with an existing registration is recorded as a failure and
// skipped.
func LoadPlugins(r *Registry, plugins []DiscoveredPlugin) {
	sorted := make([]DiscoveredPlugin, len(plugins))
	copy(sorted, plugins)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	log := logx.Component("registry")
	for _, p := range sorted {
		d, factory, err := buildPlugin(p)
		if err != nil {
			loadErr := &PluginLoadError{Kind: p.Kind, Name: p.Name, Err: err}
			log.Warn().Err(loadErr).Str("kind", string(p.Kind)).Str("name", p.Name).Msg("plugin failed to load")
			d = Descriptor{Kind: p.Kind, Name: p.Name, LoadError: err.Error()}
			factory = nil
		}
		if regErr := r.Register(d, factory); regErr != nil {
			log.Warn().Err(regErr).Str("kind", string(p.Kind)).Str("name", p.Name).Msg("plugin registration rejected")
			d.LoadError = regErr.Error()
			r.RecordFailure(d)
		}
	}
}

func buildPlugin(p DiscoveredPlugin) (d Descriptor, factory any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during load: %v", rec)
		}
	}()
	d, factory, err = p.Build()
	if err != nil {
		return Descriptor{}, nil, err
	}
	if d.Kind != p.Kind || d.Name != p.Name {
		return Descriptor{}, nil, fmt.Errorf("descriptor identity mismatch: got %s/%s, want %s/%s", d.Kind, d.Name, p.Kind, p.Name)
	}
	return d, factory, nil
}

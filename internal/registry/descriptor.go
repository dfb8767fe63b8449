package registry

// Kind identifies a component namespace. Names are unique within a kind but
// independent across kinds.
type Kind string

const (
	KindFetcher   Kind = "fetcher"
	KindProvider  Kind = "provider"
	KindExporter  Kind = "exporter"
	KindEmbedding Kind = "embedding_provider"
)

// Kinds lists all component kinds in a fixed order.
func Kinds() []Kind {
	return []Kind{KindFetcher, KindProvider, KindExporter, KindEmbedding}
}

// Valid reports whether k is a known component kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFetcher, KindProvider, KindExporter, KindEmbedding:
		return true
	}
	return false
}

// Category returns the settings namespace for the kind. Settings keys are
// formed as {category}.{component_name}.{field_key}.
func (k Kind) Category() string {
	switch k {
	case KindFetcher:
		return "fetch"
	case KindProvider:
		return "provider"
	case KindExporter:
		return "export"
	case KindEmbedding:
		return "embedding"
	}
	return string(k)
}

// KindForCategory maps a settings category back to its component kind.
func KindForCategory(category string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Category() == category {
			return k, true
		}
	}
	return "", false
}

// FieldType is the declared type of a configurable field.
type FieldType string

const (
	FieldString     FieldType = "string"
	FieldBoolean    FieldType = "boolean"
	FieldInteger    FieldType = "integer"
	FieldPath       FieldType = "path"
	FieldConnection FieldType = "connection"
)

// ConfigFieldSpec describes a single configurable field of a component.
type ConfigFieldSpec struct {
	Key         string    `json:"key"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Default     string    `json:"default,omitempty"`
	EnvVar      string    `json:"env_var,omitempty"`
	Secret      bool      `json:"secret"`
	Editable    bool      `json:"editable"`
}

// Capabilities declares kind-specific feature flags for a component.
type Capabilities struct {
	SupportsIncremental  bool `json:"supports_incremental,omitempty"`
	SupportsDirectExport bool `json:"supports_direct_export,omitempty"`
	IsLocal              bool `json:"is_local,omitempty"`
	RequiresAPIKey       bool `json:"requires_api_key,omitempty"`
}

// Descriptor provides static metadata and the configuration schema for a
// component. Descriptors are created at registration time and never mutated
// afterwards.
type Descriptor struct {
	Name         string            `json:"name"`
	Kind         Kind              `json:"kind"`
	DisplayName  string            `json:"display_name"`
	Description  string            `json:"description,omitempty"`
	Icon         string            `json:"icon,omitempty"`
	ConfigSchema []ConfigFieldSpec `json:"config_schema"`
	Capabilities Capabilities      `json:"capabilities"`

	// DetectURL reports whether this component can handle the given URL.
	// Only meaningful for fetchers; nil means the component is never
	// auto-detected.
	DetectURL func(url string) bool `json:"-"`

	// LoadError is set on placeholder descriptors for components that
	// failed to load. Such components are enumerable but unavailable.
	LoadError string `json:"load_error,omitempty"`
}

// Available reports whether the component loaded successfully.
func (d Descriptor) Available() bool { return d.LoadError == "" }

// Field returns the config field spec for the given key.
func (d Descriptor) Field(key string) (ConfigFieldSpec, bool) {
	for _, f := range d.ConfigSchema {
		if f.Key == key {
			return f, true
		}
	}
	return ConfigFieldSpec{}, false
}

// RequiredFields returns the required fields of the schema in declared order.
func (d Descriptor) RequiredFields() []ConfigFieldSpec {
	var out []ConfigFieldSpec
	for _, f := range d.ConfigSchema {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/reconly/reconly/internal/registry"
)

// Source identifies which layer supplied a resolved value.
type Source string

const (
	SourceEnvironment Source = "environment"
	SourceDatabase    Source = "database"
	SourceDefault     Source = "default"
)

// Resolved is the effective value of one configuration field after applying
// precedence. It is computed fresh on every read and never persisted.
type Resolved struct {
	Key      string `json:"key"`
	Value    any    `json:"value"`
	Source   Source `json:"source"`
	Editable bool   `json:"editable"`
	Secret   bool   `json:"secret"`

	// Empty reports that nothing was supplied for the field: no env value,
	// no database row, and no declared default. A declared default counts
	// as satisfying a required field.
	Empty bool `json:"-"`
}

// Resolver produces effective setting values by checking, per field: an
// explicit environment override bound to the field, then the persisted store,
// then the field's declared default. Environment wins only when the bound
// variable actually holds a non-empty value; otherwise the database row wins.
type Resolver struct {
	store *Store
	reg   *registry.Registry

	// category-wide schemas for settings with no component scoping,
	// e.g. agent.search_provider.
	categories    map[string][]registry.ConfigFieldSpec
	categoryOrder []string
}

// NewResolver returns a resolver over the given store and registry.
func NewResolver(store *Store, reg *registry.Registry) *Resolver {
	return &Resolver{
		store:      store,
		reg:        reg,
		categories: make(map[string][]registry.ConfigFieldSpec),
	}
}

// RegisterCategory declares a category-wide schema whose keys take the form
// {category}.{field_key}. Component categories (fetch, provider, export,
// embedding) are derived from the registry and must not be redeclared here.
func (r *Resolver) RegisterCategory(category string, fields []registry.ConfigFieldSpec) error {
	if _, ok := registry.KindForCategory(category); ok {
		return fmt.Errorf("category %q is component-scoped", category)
	}
	if _, exists := r.categories[category]; exists {
		return fmt.Errorf("category %q already registered", category)
	}
	r.categories[category] = fields
	r.categoryOrder = append(r.categoryOrder, category)
	return nil
}

// FieldForKey returns the declared field spec for a dotted settings key.
// Keys are {category}.{component}.{field} for component-scoped settings and
// {category}.{field} for category-wide ones.
func (r *Resolver) FieldForKey(key string) (registry.ConfigFieldSpec, error) {
	parts := strings.Split(key, ".")
	switch len(parts) {
	case 3:
		kind, ok := registry.KindForCategory(parts[0])
		if !ok {
			return registry.ConfigFieldSpec{}, &UnknownKeyError{Key: key}
		}
		entry, err := r.reg.Get(kind, parts[1])
		if err != nil {
			return registry.ConfigFieldSpec{}, &UnknownKeyError{Key: key}
		}
		field, ok := entry.Descriptor.Field(parts[2])
		if !ok {
			return registry.ConfigFieldSpec{}, &UnknownKeyError{Key: key}
		}
		return field, nil
	case 2:
		for _, f := range r.categories[parts[0]] {
			if f.Key == parts[1] {
				return f, nil
			}
		}
		return registry.ConfigFieldSpec{}, &UnknownKeyError{Key: key}
	default:
		return registry.ConfigFieldSpec{}, &UnknownKeyError{Key: key}
	}
}

// Resolve computes the effective value for a dotted settings key.
func (r *Resolver) Resolve(ctx context.Context, key string) (Resolved, error) {
	field, err := r.FieldForKey(key)
	if err != nil {
		return Resolved{}, err
	}
	return r.resolveField(ctx, key, field)
}

func (r *Resolver) resolveField(ctx context.Context, key string, field registry.ConfigFieldSpec) (Resolved, error) {
	if field.EnvVar != "" {
		if v := os.Getenv(field.EnvVar); v != "" {
			value, err := parseValue(field.Type, v)
			if err != nil {
				return Resolved{}, fmt.Errorf("environment variable %s for %q: %w", field.EnvVar, key, err)
			}
			// An env value locks the field regardless of the spec's
			// static editable flag.
			return Resolved{Key: key, Value: value, Source: SourceEnvironment, Editable: false, Secret: field.Secret}, nil
		}
	}

	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return Resolved{}, err
	}
	if ok {
		value, err := decodeStored(field.Type, raw)
		if err != nil {
			return Resolved{}, fmt.Errorf("stored value for %q: %w", key, err)
		}
		return Resolved{
			Key:      key,
			Value:    value,
			Source:   SourceDatabase,
			Editable: field.Editable,
			Secret:   field.Secret,
			Empty:    isEmptyValue(field.Type, value),
		}, nil
	}

	if field.Default != "" {
		value, err := parseValue(field.Type, field.Default)
		if err != nil {
			return Resolved{}, fmt.Errorf("default for %q: %w", key, err)
		}
		return Resolved{Key: key, Value: value, Source: SourceDefault, Editable: field.Editable, Secret: field.Secret}, nil
	}
	return Resolved{
		Key:      key,
		Value:    zeroValue(field.Type),
		Source:   SourceDefault,
		Editable: field.Editable,
		Secret:   field.Secret,
		Empty:    true,
	}, nil
}

// ResolveComponent resolves every field of a component's schema in declared
// order.
func (r *Resolver) ResolveComponent(ctx context.Context, d registry.Descriptor) ([]Resolved, error) {
	out := make([]Resolved, 0, len(d.ConfigSchema))
	for _, f := range d.ConfigSchema {
		res, err := r.resolveField(ctx, ComponentKey(d, f.Key), f)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// ResolveCategory resolves every field of every registered component of the
// category's kind, in component insertion order then declared field order.
// For category-wide categories it resolves the declared fields in order.
func (r *Resolver) ResolveCategory(ctx context.Context, category string) ([]Resolved, error) {
	if kind, ok := registry.KindForCategory(category); ok {
		var out []Resolved
		for _, e := range r.reg.List(kind) {
			resolved, err := r.ResolveComponent(ctx, e.Descriptor)
			if err != nil {
				return nil, err
			}
			out = append(out, resolved...)
		}
		return out, nil
	}
	fields, ok := r.categories[category]
	if !ok {
		return nil, &UnknownKeyError{Key: category}
	}
	out := make([]Resolved, 0, len(fields))
	for _, f := range fields {
		res, err := r.resolveField(ctx, category+"."+f.Key, f)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Categories returns the registered category-wide namespaces in declaration
// order.
func (r *Resolver) Categories() []string {
	out := make([]string, len(r.categoryOrder))
	copy(out, r.categoryOrder)
	return out
}

// Update validates value against the field declared for key and upserts it
// into the store. Writes to fields locked by an active environment override
// fail with ReadOnlyFieldError so they are never silently shadowed.
func (r *Resolver) Update(ctx context.Context, key string, value any) error {
	field, err := r.FieldForKey(key)
	if err != nil {
		return err
	}
	if field.EnvVar != "" && os.Getenv(field.EnvVar) != "" {
		return &ReadOnlyFieldError{Key: key, EnvVar: field.EnvVar}
	}
	if !field.Editable {
		return &ReadOnlyFieldError{Key: key}
	}
	normalized, err := normalizeValue(field.Type, value)
	if err != nil {
		return &ValidationError{Key: key, Reason: err.Error()}
	}
	if field.Required && isEmptyValue(field.Type, normalized) && os.Getenv(field.EnvVar) == "" {
		return &ValidationError{Key: key, Reason: "required field cannot be empty"}
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	return r.store.Set(ctx, key, string(encoded))
}

// ResetResult reports the outcome of resetting one key.
type ResetResult struct {
	Key string
	Err error
}

// Reset deletes the persisted rows for the given keys so subsequent reads
// fall through to environment or default. Each key is deleted atomically;
// partial success across the list is reported per key.
func (r *Resolver) Reset(ctx context.Context, keys []string) []ResetResult {
	out := make([]ResetResult, 0, len(keys))
	for _, k := range keys {
		out = append(out, ResetResult{Key: k, Err: r.store.Delete(ctx, k)})
	}
	return out
}

// ComponentKey builds the dotted settings key for a component field.
func ComponentKey(d registry.Descriptor, fieldKey string) string {
	return d.Kind.Category() + "." + d.Name + "." + fieldKey
}

func parseValue(t registry.FieldType, v string) (any, error) {
	switch t {
	case registry.FieldBoolean:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("expected boolean, got %q", v)
		}
		return b, nil
	case registry.FieldInteger:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", v)
		}
		return n, nil
	default:
		return v, nil
	}
}

func decodeStored(t registry.FieldType, raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return normalizeValue(t, v)
}

func normalizeValue(t registry.FieldType, v any) (any, error) {
	switch t {
	case registry.FieldBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil
	case registry.FieldInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("expected integer, got %v", n)
			}
			return int64(n), nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %v", n)
			}
			return i, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", v)
		}
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	}
}

func isEmptyValue(t registry.FieldType, v any) bool {
	switch t {
	case registry.FieldBoolean, registry.FieldInteger:
		// Booleans and integers are never "empty" once a value exists;
		// emptiness for them only arises from total absence, which
		// resolveField tracks separately.
		return false
	default:
		s, _ := v.(string)
		return s == ""
	}
}

func zeroValue(t registry.FieldType) any {
	switch t {
	case registry.FieldBoolean:
		return false
	case registry.FieldInteger:
		return int64(0)
	default:
		return ""
	}
}

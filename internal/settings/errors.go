package settings

import (
	"fmt"
	"strings"

	"github.com/reconly/reconly/internal/registry"
)

// UnknownKeyError reports a settings key that matches no declared field.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown settings key %q", e.Key)
}

// ValidationError reports a write that violates the field's declared type or
// required-ness. It maps to a field-level error in the UI.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %q: %s", e.Key, e.Reason)
}

// ReadOnlyFieldError reports a write to a field currently locked by an active
// environment override. Failing loudly here prevents UI writes from being
// silently shadowed by environment precedence.
type ReadOnlyFieldError struct {
	Key    string
	EnvVar string
}

func (e *ReadOnlyFieldError) Error() string {
	if e.EnvVar == "" {
		return fmt.Sprintf("%q is not editable", e.Key)
	}
	return fmt.Sprintf("%q is set via environment variable %s and cannot be edited", e.Key, e.EnvVar)
}

// CannotEnableError reports an enable toggle on a component whose required
// configuration is incomplete.
type CannotEnableError struct {
	Kind    registry.Kind
	Name    string
	Missing []string
}

func (e *CannotEnableError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("cannot enable %s %q: component is unavailable", e.Kind, e.Name)
	}
	return fmt.Sprintf("cannot enable %s %q: missing required fields: %s",
		e.Kind, e.Name, strings.Join(e.Missing, ", "))
}

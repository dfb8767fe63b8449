package registry

import "fmt"

// DuplicateRegistrationError reports a second registration under an already
// taken (kind, name) pair. The first registrant stays active.
type DuplicateRegistrationError struct {
	Kind Kind
	Name string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("%s %q is already registered", e.Kind, e.Name)
}

// NotFoundError reports a lookup for a (kind, name) pair with no registration.
type NotFoundError struct {
	Kind Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q is not registered", e.Kind, e.Name)
}

// PluginLoadError reports a discovered plugin whose construction failed. The
// plugin is registered as an unavailable placeholder; startup continues.
type PluginLoadError struct {
	Kind Kind
	Name string
	Err  error
}

func (e *PluginLoadError) Error() string {
	return fmt.Sprintf("plugin %s %q failed to load: %v", e.Kind, e.Name, e.Err)
}

func (e *PluginLoadError) Unwrap() error { return e.Err }

package settings

import (
	"context"
	"encoding/json"

	"github.com/reconly/reconly/internal/registry"
)

// Activation is the derived enabled/configured/can-enable status of a
// component. It is a pure function of the descriptor's required fields and
// their resolved settings; nothing here is persisted except the user's
// enabled intent.
type Activation struct {
	Enabled      bool     `json:"enabled"`
	IsConfigured bool     `json:"is_configured"`
	CanEnable    bool     `json:"can_enable"`
	Missing      []string `json:"missing,omitempty"`
}

// EnabledKey is the settings key holding the user's enabled intent for a
// component.
func EnabledKey(d registry.Descriptor) string {
	return d.Kind.Category() + "." + d.Name + ".enabled"
}

// Activation derives the activation state for a component. A component with
// unmet required fields cannot be enabled; one already enabled whose
// configuration later becomes incomplete stays enabled but is flagged
// misconfigured (Enabled true, IsConfigured false).
func (r *Resolver) Activation(ctx context.Context, d registry.Descriptor) (Activation, error) {
	var missing []string
	for _, f := range d.RequiredFields() {
		res, err := r.resolveField(ctx, ComponentKey(d, f.Key), f)
		if err != nil {
			return Activation{}, err
		}
		if res.Empty {
			missing = append(missing, f.Key)
		}
	}

	enabled := false
	if raw, ok, err := r.store.Get(ctx, EnabledKey(d)); err != nil {
		return Activation{}, err
	} else if ok {
		_ = json.Unmarshal([]byte(raw), &enabled)
	}

	isConfigured := len(missing) == 0
	canEnable := (isConfigured || len(d.RequiredFields()) == 0) && d.Available()
	return Activation{
		Enabled:      enabled,
		IsConfigured: isConfigured,
		CanEnable:    canEnable,
		Missing:      missing,
	}, nil
}

// SetEnabled persists the user's enabled intent for a component. Enabling a
// component whose required configuration is incomplete fails with
// CannotEnableError listing the missing fields; disabling is always allowed.
func (r *Resolver) SetEnabled(ctx context.Context, kind registry.Kind, name string, enabled bool) error {
	entry, err := r.reg.Get(kind, name)
	if err != nil {
		return err
	}
	if enabled {
		act, err := r.Activation(ctx, entry.Descriptor)
		if err != nil {
			return err
		}
		if !act.CanEnable {
			return &CannotEnableError{Kind: kind, Name: name, Missing: act.Missing}
		}
	}
	encoded, _ := json.Marshal(enabled)
	return r.store.Set(ctx, EnabledKey(entry.Descriptor), string(encoded))
}

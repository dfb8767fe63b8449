package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/reconly/reconly/internal/registry"
)

func activationFor(t *testing.T, r *Resolver, kind registry.Kind, name string) Activation {
	t.Helper()
	entry, err := r.reg.Get(kind, name)
	if err != nil {
		t.Fatalf("get %s/%s: %v", kind, name, err)
	}
	act, err := r.Activation(context.Background(), entry.Descriptor)
	if err != nil {
		t.Fatalf("activation: %v", err)
	}
	return act
}

func TestActivationObsidianScenario(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	// Required vault_path with no default and no env binding: not
	// configurable until a value is stored.
	act := activationFor(t, r, registry.KindExporter, "obsidian")
	if act.IsConfigured || act.CanEnable {
		t.Fatalf("expected unconfigured before value set: %+v", act)
	}
	if len(act.Missing) != 1 || act.Missing[0] != "vault_path" {
		t.Fatalf("expected vault_path missing, got %v", act.Missing)
	}

	var ce *CannotEnableError
	if err := r.SetEnabled(ctx, registry.KindExporter, "obsidian", true); !errors.As(err, &ce) {
		t.Fatalf("expected CannotEnableError, got %v", err)
	}
	if len(ce.Missing) != 1 || ce.Missing[0] != "vault_path" {
		t.Fatalf("error must list missing fields, got %v", ce.Missing)
	}

	if err := r.Update(ctx, "export.obsidian.vault_path", "/vault"); err != nil {
		t.Fatalf("update: %v", err)
	}
	act = activationFor(t, r, registry.KindExporter, "obsidian")
	if !act.IsConfigured || !act.CanEnable {
		t.Fatalf("expected configured after value set: %+v", act)
	}
	if err := r.SetEnabled(ctx, registry.KindExporter, "obsidian", true); err != nil {
		t.Fatalf("set enabled: %v", err)
	}
	act = activationFor(t, r, registry.KindExporter, "obsidian")
	if !act.Enabled {
		t.Fatalf("expected enabled: %+v", act)
	}
}

func TestActivationEnvSatisfiesRequired(t *testing.T) {
	r := testResolver(t)
	t.Setenv("RECONLY_TEST_OPENAI_API_KEY", "sk-test")

	act := activationFor(t, r, registry.KindProvider, "openai")
	if !act.IsConfigured || !act.CanEnable {
		t.Fatalf("env value must satisfy required field: %+v", act)
	}
}

func TestActivationMonotonicity(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	if act := activationFor(t, r, registry.KindExporter, "obsidian"); act.CanEnable {
		t.Fatalf("expected can_enable=false initially")
	}
	if err := r.Update(ctx, "export.obsidian.vault_path", "/vault"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if act := activationFor(t, r, registry.KindExporter, "obsidian"); !act.CanEnable {
		t.Fatalf("filling the required field must flip can_enable to true")
	}
	// Resetting the stored value (no env, no default) flips it back.
	if res := r.Reset(ctx, []string{"export.obsidian.vault_path"}); res[0].Err != nil {
		t.Fatalf("reset: %v", res[0].Err)
	}
	if act := activationFor(t, r, registry.KindExporter, "obsidian"); act.CanEnable {
		t.Fatalf("resetting the required field must flip can_enable back to false")
	}
}

func TestMisconfiguredStateIsKept(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	if err := r.Update(ctx, "export.obsidian.vault_path", "/vault"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := r.SetEnabled(ctx, registry.KindExporter, "obsidian", true); err != nil {
		t.Fatalf("set enabled: %v", err)
	}
	// Configuration becomes invalid after enabling; the component stays
	// enabled but is flagged misconfigured.
	if res := r.Reset(ctx, []string{"export.obsidian.vault_path"}); res[0].Err != nil {
		t.Fatalf("reset: %v", res[0].Err)
	}
	act := activationFor(t, r, registry.KindExporter, "obsidian")
	if !act.Enabled || act.IsConfigured {
		t.Fatalf("expected enabled-but-misconfigured, got %+v", act)
	}
}

func TestRequiredFieldWithDefaultIsConfigured(t *testing.T) {
	r := testResolver(t)
	reg := r.reg
	d := registry.Descriptor{
		Kind: registry.KindFetcher,
		Name: "rss",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "max_items", Type: registry.FieldInteger, Label: "Max items", Required: true, Default: "20", Editable: true},
		},
	}
	if err := reg.Register(d, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	act := activationFor(t, r, registry.KindFetcher, "rss")
	if !act.IsConfigured || !act.CanEnable {
		t.Fatalf("a required field with a default is trivially configured: %+v", act)
	}
}

func TestSetEnabledOnUnknownComponent(t *testing.T) {
	r := testResolver(t)
	var nf *registry.NotFoundError
	if err := r.SetEnabled(context.Background(), registry.KindProvider, "missing", true); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDisableAlwaysAllowed(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()
	// obsidian is unconfigured; disabling must still succeed.
	if err := r.SetEnabled(ctx, registry.KindExporter, "obsidian", false); err != nil {
		t.Fatalf("disable: %v", err)
	}
}

func TestUnavailablePlaceholderCannotEnable(t *testing.T) {
	r := testResolver(t)
	d := registry.Descriptor{Kind: registry.KindFetcher, Name: "broken", LoadError: "import failed"}
	if err := r.reg.Register(d, nil); err != nil {
		t.Fatalf("register placeholder: %v", err)
	}
	act := activationFor(t, r, registry.KindFetcher, "broken")
	if act.CanEnable {
		t.Fatalf("placeholder must not be enableable: %+v", act)
	}
	var ce *CannotEnableError
	if err := r.SetEnabled(context.Background(), registry.KindFetcher, "broken", true); !errors.As(err, &ce) {
		t.Fatalf("expected CannotEnableError, got %v", err)
	}
}

package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/reconly/reconly/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	obsidian := registry.Descriptor{
		Kind:        registry.KindExporter,
		Name:        "obsidian",
		DisplayName: "Obsidian",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "vault_path", Type: registry.FieldPath, Label: "Vault path", Required: true, Editable: true},
			{Key: "folder", Type: registry.FieldString, Label: "Folder", Default: "Reconly", Editable: true},
		},
	}
	openai := registry.Descriptor{
		Kind:        registry.KindProvider,
		Name:        "openai",
		DisplayName: "OpenAI",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "api_key", Type: registry.FieldString, Label: "API key", Required: true, EnvVar: "RECONLY_TEST_OPENAI_API_KEY", Secret: true, Editable: true},
			{Key: "model", Type: registry.FieldString, Label: "Model", Default: "gpt-4o-mini", Editable: true},
			{Key: "max_items", Type: registry.FieldInteger, Label: "Max items", Default: "10", Editable: true},
			{Key: "stream", Type: registry.FieldBoolean, Label: "Stream", Editable: true},
		},
	}
	for _, d := range []registry.Descriptor{obsidian, openai} {
		if err := reg.Register(d, nil); err != nil {
			t.Fatalf("register %s: %v", d.Name, err)
		}
	}
	return reg
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(openTestStore(t), testRegistry(t))
}

func TestResolveDefaultFallback(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	res, err := r.Resolve(ctx, "provider.openai.model")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Value != "gpt-4o-mini" || res.Source != SourceDefault || !res.Editable {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	// Zero value when no default is declared.
	res, err = r.Resolve(ctx, "export.obsidian.vault_path")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Value != "" || res.Source != SourceDefault || !res.Empty {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveDatabaseOverridesDefault(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	if err := r.Update(ctx, "provider.openai.model", "gpt-4o"); err != nil {
		t.Fatalf("update: %v", err)
	}
	res, err := r.Resolve(ctx, "provider.openai.model")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Value != "gpt-4o" || res.Source != SourceDatabase {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveEnvironmentWins(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	// A stored database value exists but the env value takes precedence
	// and locks the field.
	if err := r.Update(ctx, "provider.openai.api_key", "sk-db"); err != nil {
		t.Fatalf("update: %v", err)
	}
	t.Setenv("RECONLY_TEST_OPENAI_API_KEY", "sk-test")

	res, err := r.Resolve(ctx, "provider.openai.api_key")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Value != "sk-test" || res.Source != SourceEnvironment || res.Editable {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveEnvDeclaredButAbsentFallsThrough(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()
	t.Setenv("RECONLY_TEST_OPENAI_API_KEY", "")

	if err := r.Update(ctx, "provider.openai.api_key", "sk-db"); err != nil {
		t.Fatalf("update: %v", err)
	}
	res, err := r.Resolve(ctx, "provider.openai.api_key")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Value != "sk-db" || res.Source != SourceDatabase || !res.Editable {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestUpdateReadOnlyWhenEnvPresent(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()
	t.Setenv("RECONLY_TEST_OPENAI_API_KEY", "sk-test")

	err := r.Update(ctx, "provider.openai.api_key", "new-value")
	var ro *ReadOnlyFieldError
	if !errors.As(err, &ro) {
		t.Fatalf("expected ReadOnlyFieldError, got %v", err)
	}
	// The database row must be left unchanged by the rejected write.
	if _, ok, _ := r.store.Get(ctx, "provider.openai.api_key"); ok {
		t.Fatalf("rejected write must not touch the store")
	}
}

func TestUpdateTypeValidation(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	var ve *ValidationError
	if err := r.Update(ctx, "provider.openai.max_items", "ten"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for string into integer, got %v", err)
	}
	if err := r.Update(ctx, "provider.openai.stream", 1); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for number into boolean, got %v", err)
	}
	if err := r.Update(ctx, "provider.openai.max_items", 12.5); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for fractional integer, got %v", err)
	}

	// Valid writes round-trip with their types intact.
	if err := r.Update(ctx, "provider.openai.max_items", 25); err != nil {
		t.Fatalf("update integer: %v", err)
	}
	if err := r.Update(ctx, "provider.openai.stream", true); err != nil {
		t.Fatalf("update boolean: %v", err)
	}
	res, err := r.Resolve(ctx, "provider.openai.max_items")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Value != int64(25) || res.Source != SourceDatabase {
		t.Fatalf("unexpected integer resolution: %+v", res)
	}
}

func TestUpdateRequiredEmptyRejected(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	var ve *ValidationError
	if err := r.Update(ctx, "export.obsidian.vault_path", ""); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty required field, got %v", err)
	}
}

func TestUpdateUnknownKey(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	var uk *UnknownKeyError
	if err := r.Update(ctx, "export.obsidian.nope", "x"); !errors.As(err, &uk) {
		t.Fatalf("expected UnknownKeyError, got %v", err)
	}
	if err := r.Update(ctx, "export.missing.vault_path", "x"); !errors.As(err, &uk) {
		t.Fatalf("expected UnknownKeyError for unknown component, got %v", err)
	}
	if err := r.Update(ctx, "nonsense", "x"); !errors.As(err, &uk) {
		t.Fatalf("expected UnknownKeyError for malformed key, got %v", err)
	}
}

func TestResetFallsThrough(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	if err := r.Update(ctx, "provider.openai.model", "gpt-4o"); err != nil {
		t.Fatalf("update: %v", err)
	}
	results := r.Reset(ctx, []string{"provider.openai.model"})
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("reset: %+v", results)
	}
	res, err := r.Resolve(ctx, "provider.openai.model")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Value != "gpt-4o-mini" || res.Source != SourceDefault {
		t.Fatalf("expected fallthrough to default, got %+v", res)
	}
}

func TestResolveCategoryOrder(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	resolved, err := r.ResolveCategory(ctx, "provider")
	if err != nil {
		t.Fatalf("resolve category: %v", err)
	}
	want := []string{
		"provider.openai.api_key",
		"provider.openai.model",
		"provider.openai.max_items",
		"provider.openai.stream",
	}
	if len(resolved) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(resolved))
	}
	for i, k := range want {
		if resolved[i].Key != k {
			t.Fatalf("position %d: expected %s, got %s", i, k, resolved[i].Key)
		}
	}
}

func TestCategoryWideSettings(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	err := r.RegisterCategory("agent", []registry.ConfigFieldSpec{
		{Key: "search_provider", Type: registry.FieldString, Label: "Search provider", Default: "duckduckgo", Editable: true},
	})
	if err != nil {
		t.Fatalf("register category: %v", err)
	}
	if err := r.RegisterCategory("export", nil); err == nil {
		t.Fatalf("component categories must be rejected")
	}

	res, err := r.Resolve(ctx, "agent.search_provider")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Value != "duckduckgo" || res.Source != SourceDefault {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if err := r.Update(ctx, "agent.search_provider", "brave"); err != nil {
		t.Fatalf("update: %v", err)
	}
	res, _ = r.Resolve(ctx, "agent.search_provider")
	if res.Value != "brave" || res.Source != SourceDatabase {
		t.Fatalf("unexpected resolution after update: %+v", res)
	}
}

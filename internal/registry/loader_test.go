package registry

import (
	"errors"
	"testing"
)

func TestLoadPluginsSortsByName(t *testing.T) {
	r := New()
	if err := r.Register(desc(KindExporter, "obsidian"), nil); err != nil {
		t.Fatalf("register builtin: %v", err)
	}
	plugins := []DiscoveredPlugin{
		{Kind: KindExporter, Name: "zeta", Build: func() (Descriptor, any, error) {
			return desc(KindExporter, "zeta"), nil, nil
		}},
		{Kind: KindExporter, Name: "alpha", Build: func() (Descriptor, any, error) {
			return desc(KindExporter, "alpha"), nil, nil
		}},
	}
	LoadPlugins(r, plugins)

	got := r.List(KindExporter)
	want := []string{"obsidian", "alpha", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, n := range want {
		if got[i].Descriptor.Name != n {
			t.Fatalf("position %d: expected %s, got %s", i, n, got[i].Descriptor.Name)
		}
	}
}

func TestLoadPluginsFailureBecomesPlaceholder(t *testing.T) {
	r := New()
	LoadPlugins(r, []DiscoveredPlugin{
		{Kind: KindFetcher, Name: "broken", Build: func() (Descriptor, any, error) {
			return Descriptor{}, nil, errors.New("import failed")
		}},
		{Kind: KindFetcher, Name: "ok", Build: func() (Descriptor, any, error) {
			return desc(KindFetcher, "ok"), nil, nil
		}},
	})

	e, err := r.Get(KindFetcher, "broken")
	if err != nil {
		t.Fatalf("placeholder must be enumerable: %v", err)
	}
	if e.Descriptor.Available() || e.Descriptor.LoadError == "" {
		t.Fatalf("placeholder must carry a load error: %+v", e.Descriptor)
	}
	if _, err := r.Get(KindFetcher, "ok"); err != nil {
		t.Fatalf("one broken plugin must not abort the rest: %v", err)
	}
}

func TestLoadPluginsPanicIsCaught(t *testing.T) {
	r := New()
	LoadPlugins(r, []DiscoveredPlugin{
		{Kind: KindProvider, Name: "panicky", Build: func() (Descriptor, any, error) {
			panic("boom")
		}},
	})
	e, err := r.Get(KindProvider, "panicky")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Descriptor.LoadError == "" {
		t.Fatalf("expected load error from panic")
	}
}

func TestLoadPluginsDuplicateRecordedAsFailure(t *testing.T) {
	r := New()
	if err := r.Register(desc(KindFetcher, "rss"), "builtin"); err != nil {
		t.Fatalf("register: %v", err)
	}
	LoadPlugins(r, []DiscoveredPlugin{
		{Kind: KindFetcher, Name: "rss", Build: func() (Descriptor, any, error) {
			return desc(KindFetcher, "rss"), "plugin", nil
		}},
	})

	e, err := r.Get(KindFetcher, "rss")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Factory != "builtin" {
		t.Fatalf("builtin must not be overwritten")
	}
	fails := r.Failures()
	if len(fails) != 1 || fails[0].Name != "rss" || fails[0].LoadError == "" {
		t.Fatalf("duplicate must be observable as a load failure: %+v", fails)
	}
}

func TestLoadPluginsIdentityMismatch(t *testing.T) {
	r := New()
	LoadPlugins(r, []DiscoveredPlugin{
		{Kind: KindFetcher, Name: "claimed", Build: func() (Descriptor, any, error) {
			return desc(KindFetcher, "actual"), nil, nil
		}},
	})
	e, err := r.Get(KindFetcher, "claimed")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Descriptor.LoadError == "" {
		t.Fatalf("identity mismatch must surface as load error")
	}
}

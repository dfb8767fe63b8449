// Package builtin wires the built-in components into a registry.
package builtin

import (
	"fmt"

	"github.com/reconly/reconly/internal/embedding"
	"github.com/reconly/reconly/internal/export"
	"github.com/reconly/reconly/internal/fetch"
	"github.com/reconly/reconly/internal/provider"
	"github.com/reconly/reconly/internal/registry"
)

// Init registers every built-in component in its fixed order and then loads
// discovered plugins. Order matters twice: listing follows registration
// order, and URL detection picks the first fetcher that matches, so the
// website fetcher goes last as the catch-all.
func Init(reg *registry.Registry, plugins []registry.DiscoveredPlugin) error {
	builtins := []struct {
		d registry.Descriptor
		f any
	}{
		{fetch.RSSDescriptor(), fetch.Factory(fetch.NewRSS)},
		{fetch.YouTubeDescriptor(), fetch.Factory(fetch.NewYouTube)},
		{fetch.IMAPDescriptor(), fetch.Factory(fetch.NewIMAP)},
		{fetch.WebsiteDescriptor(), fetch.Factory(fetch.NewWebsite)},
		{provider.OpenAIDescriptor(), provider.Factory(provider.NewOpenAI)},
		{provider.OllamaDescriptor(), provider.Factory(provider.NewOllama)},
		{export.ObsidianDescriptor(), export.Factory(export.NewObsidian)},
		{export.JSONFileDescriptor(), export.Factory(export.NewJSONFile)},
		{embedding.OpenAIDescriptor(), embedding.Factory(embedding.NewOpenAI)},
	}
	for _, b := range builtins {
		if err := reg.Register(b.d, b.f); err != nil {
			return fmt.Errorf("register built-in %s/%s: %w", b.d.Kind, b.d.Name, err)
		}
	}
	registry.LoadPlugins(reg, plugins)
	return nil
}

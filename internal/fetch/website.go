package fetch

import (
	"context"
	"fmt"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	mdplugin "github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/registry"
)

// WebsiteDescriptor describes the built-in website fetcher. It extracts the
// main article from a page and converts it to markdown. It matches any URL,
// so it must be registered last among fetchers to act as the detection
// fallback.
func WebsiteDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindFetcher,
		Name:        "website",
		DisplayName: "Website",
		Description: "Extracts the main article from a web page",
		Icon:        "globe",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "timeout_seconds", Type: registry.FieldInteger, Label: "Fetch timeout (seconds)", Default: "30", Editable: true},
		},
		Capabilities: registry.Capabilities{IsLocal: true},
		DetectURL:    func(string) bool { return true },
	}
}

type websiteFetcher struct {
	timeout   time.Duration
	converter *md.Converter
}

// NewWebsite constructs the website fetcher from its resolved configuration.
func NewWebsite(cfg map[string]any) (Fetcher, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(mdplugin.GitHubFlavored())
	return &websiteFetcher{
		timeout:   time.Duration(options.Int(cfg, "timeout_seconds", 30)) * time.Second,
		converter: converter,
	}, nil
}

func (f *websiteFetcher) Fetch(ctx context.Context, url string, _ Options) ([]Item, error) {
	article, err := readability.FromURL(url, f.timeout)
	if err != nil {
		return nil, fmt.Errorf("extract article from %s: %w", url, err)
	}

	content, err := f.converter.ConvertString(article.Content)
	if err != nil {
		// Fall back to the plain-text extraction when conversion fails.
		content = article.TextContent
	}

	title := article.Title
	if title == "" {
		title = url
	}
	return []Item{{
		Title:     title,
		URL:       url,
		Author:    article.Byline,
		Content:   content,
		Published: time.Now().UTC(),
	}}, nil
}

package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/registry"
)

// RSSDescriptor describes the built-in RSS/Atom feed fetcher.
func RSSDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindFetcher,
		Name:        "rss",
		DisplayName: "RSS / Atom",
		Description: "Fetches items from RSS and Atom feeds",
		Icon:        "rss",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "max_items", Type: registry.FieldInteger, Label: "Max items per fetch", Default: "20", Editable: true},
			{Key: "full_content", Type: registry.FieldBoolean, Label: "Prefer full content over description", Default: "true", Editable: true},
		},
		Capabilities: registry.Capabilities{SupportsIncremental: true, IsLocal: true},
		DetectURL: func(u string) bool {
			lower := strings.ToLower(u)
			return strings.Contains(lower, "/feed") ||
				strings.HasSuffix(lower, ".xml") ||
				strings.HasSuffix(lower, ".rss") ||
				strings.HasSuffix(lower, ".atom")
		},
	}
}

type rssFetcher struct {
	parser      *gofeed.Parser
	maxItems    int
	fullContent bool
}

// NewRSS constructs the RSS fetcher from its resolved configuration.
func NewRSS(cfg map[string]any) (Fetcher, error) {
	return &rssFetcher{
		parser:      gofeed.NewParser(),
		maxItems:    options.Int(cfg, "max_items", 20),
		fullContent: options.Bool(cfg, "full_content", true),
	}, nil
}

func (f *rssFetcher) Fetch(ctx context.Context, url string, opts Options) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = f.maxItems
	}

	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		item := Item{
			Title: fi.Title,
			URL:   fi.Link,
		}
		if fi.PublishedParsed != nil {
			item.Published = *fi.PublishedParsed
		} else if fi.UpdatedParsed != nil {
			item.Published = *fi.UpdatedParsed
		}
		if !opts.Since.IsZero() && !item.Published.IsZero() && item.Published.Before(opts.Since) {
			continue
		}
		if fi.Author != nil {
			item.Author = fi.Author.Name
		}
		if f.fullContent && fi.Content != "" {
			item.Content = fi.Content
		} else {
			item.Content = fi.Description
		}
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/registry"
)

// YouTubeDescriptor describes the built-in YouTube fetcher. It reads the RSS
// feeds YouTube publishes per channel and playlist, so no API key is needed.
func YouTubeDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindFetcher,
		Name:        "youtube",
		DisplayName: "YouTube",
		Description: "Fetches new videos from YouTube channels and playlists",
		Icon:        "youtube",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "max_items", Type: registry.FieldInteger, Label: "Max items per fetch", Default: "10", Editable: true},
		},
		Capabilities: registry.Capabilities{SupportsIncremental: true, IsLocal: true},
		DetectURL:    IsYouTubeURL,
	}
}

// IsYouTubeURL reports whether u points at YouTube.
func IsYouTubeURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	return host == "youtube.com" || host == "youtu.be" || host == "m.youtube.com"
}

// youtubeFeedURL maps a channel or playlist URL to its RSS feed URL. Feed
// URLs pass through unchanged.
func youtubeFeedURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if strings.Contains(parsed.Path, "/feeds/videos.xml") {
		return raw, nil
	}
	if strings.HasPrefix(parsed.Path, "/channel/") {
		id := strings.TrimPrefix(parsed.Path, "/channel/")
		id = strings.SplitN(id, "/", 2)[0]
		return "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(id), nil
	}
	if parsed.Path == "/playlist" {
		if id := parsed.Query().Get("list"); id != "" {
			return "https://www.youtube.com/feeds/videos.xml?playlist_id=" + url.QueryEscape(id), nil
		}
	}
	return "", fmt.Errorf("unsupported youtube url %q: expected a channel or playlist link", raw)
}

type youtubeFetcher struct {
	rss *rssFetcher
}

// NewYouTube constructs the YouTube fetcher from its resolved configuration.
func NewYouTube(cfg map[string]any) (Fetcher, error) {
	return &youtubeFetcher{rss: &rssFetcher{
		parser:      gofeed.NewParser(),
		maxItems:    options.Int(cfg, "max_items", 10),
		fullContent: false,
	}}, nil
}

func (f *youtubeFetcher) Fetch(ctx context.Context, rawURL string, opts Options) ([]Item, error) {
	feedURL, err := youtubeFeedURL(rawURL)
	if err != nil {
		return nil, err
	}
	return f.rss.Fetch(ctx, feedURL, opts)
}

package fetch

import (
	"context"
	"time"
)

// Item is one piece of content pulled from a source, before summarization.
type Item struct {
	Title     string
	URL       string
	Author    string
	Content   string
	Published time.Time
}

// Options narrows a fetch run.
type Options struct {
	// Limit caps the number of items returned; 0 means the fetcher's
	// configured default.
	Limit int
	// Since skips items published before the given time when the source
	// supports incremental fetching.
	Since time.Time
}

// Fetcher pulls items from a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) ([]Item, error)
}

// Factory constructs a fetcher from its resolved configuration, keyed by
// config field key.
type Factory func(cfg map[string]any) (Fetcher, error)

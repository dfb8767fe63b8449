package digest

import "time"

// Source is a configured content source. Each source points at a URL, names
// the fetcher that handles it (empty means auto-detect by URL), and carries a
// cron schedule for periodic runs.
type Source struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Fetcher   string    `json:"fetcher,omitempty"`
	Schedule  string    `json:"schedule,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// Digest is one summarized content item. Digests are deduplicated per source
// by item URL.
type Digest struct {
	ID        string    `json:"id"`
	SourceID  int64     `json:"source_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Tags      []string  `json:"tags"`
	Exported  bool      `json:"exported"`
	FetchedAt time.Time `json:"fetched_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ListFilter narrows digest listings.
type ListFilter struct {
	SourceID int64
	Tag      string
	Limit    int
	Offset   int
}

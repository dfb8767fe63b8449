// Package provider defines the AI summarization interface and its built-in
// implementations.
package provider

import "context"

// Request carries one piece of content to summarize.
type Request struct {
	Title   string
	URL     string
	Content string
	// Language is an optional hint for the output language. Empty means the
	// model decides.
	Language string
}

// Summary is the model's output for a single request.
type Summary struct {
	Text string
	Tags []string
	// Model records which model produced the summary.
	Model string
}

// Provider produces summaries from fetched content.
type Provider interface {
	Summarize(ctx context.Context, req Request) (Summary, error)
}

// Factory builds a provider from its resolved configuration.
type Factory func(cfg map[string]any) (Provider, error)

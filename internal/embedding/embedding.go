// Package embedding defines the vector embedding interface used for digest
// similarity search.
package embedding

import "context"

// Provider turns text into embedding vectors.
type Provider interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Factory builds an embedding provider from its resolved configuration.
type Factory func(cfg map[string]any) (Provider, error)

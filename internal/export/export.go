// Package export defines the digest export interface and its built-in
// implementations.
package export

import (
	"context"

	"github.com/reconly/reconly/internal/digest"
)

// Exporter writes a digest to an external destination.
type Exporter interface {
	Export(ctx context.Context, d digest.Digest) error
}

// Factory builds an exporter from its resolved configuration.
type Factory func(cfg map[string]any) (Exporter, error)

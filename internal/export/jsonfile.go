package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/digest"
	"github.com/reconly/reconly/internal/registry"
)

// JSONFileDescriptor describes the built-in JSON lines exporter. Each digest
// is appended as one JSON object per line, suitable for downstream tooling.
func JSONFileDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindExporter,
		Name:        "jsonfile",
		DisplayName: "JSON file",
		Description: "Appends digests to a JSON lines file",
		Icon:        "file-json",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "path", Type: registry.FieldPath, Label: "Output file", Required: true, Editable: true},
		},
		Capabilities: registry.Capabilities{SupportsDirectExport: true, IsLocal: true},
	}
}

type jsonFileExporter struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile constructs the JSON lines exporter from its resolved
// configuration.
func NewJSONFile(cfg map[string]any) (Exporter, error) {
	path := options.String(cfg, "path", "")
	if path == "" {
		return nil, fmt.Errorf("jsonfile: path is not configured")
	}
	return &jsonFileExporter{path: path}, nil
}

func (e *jsonFileExporter) Export(ctx context.Context, d digest.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(e.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.path, err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("append digest: %w", err)
	}
	return nil
}

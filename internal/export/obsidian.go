package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/digest"
	"github.com/reconly/reconly/internal/registry"
)

// ObsidianDescriptor describes the built-in Obsidian exporter. It writes one
// markdown note per digest into a vault folder.
func ObsidianDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindExporter,
		Name:        "obsidian",
		DisplayName: "Obsidian",
		Description: "Writes digests as markdown notes into an Obsidian vault",
		Icon:        "obsidian",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "vault_path", Type: registry.FieldPath, Label: "Vault path", Required: true, Editable: true},
			{Key: "folder", Type: registry.FieldString, Label: "Folder inside the vault", Default: "Reconly", Editable: true},
			{Key: "include_content", Type: registry.FieldBoolean, Label: "Include full content", Default: "false", Editable: true},
		},
		Capabilities: registry.Capabilities{SupportsDirectExport: true, IsLocal: true},
	}
}

type obsidianExporter struct {
	vaultPath      string
	folder         string
	includeContent bool
}

// NewObsidian constructs the Obsidian exporter from its resolved configuration.
func NewObsidian(cfg map[string]any) (Exporter, error) {
	vault := options.String(cfg, "vault_path", "")
	if vault == "" {
		return nil, fmt.Errorf("obsidian: vault_path is not configured")
	}
	return &obsidianExporter{
		vaultPath:      vault,
		folder:         options.String(cfg, "folder", "Reconly"),
		includeContent: options.Bool(cfg, "include_content", false),
	}, nil
}

type noteFrontmatter struct {
	Title   string   `yaml:"title"`
	URL     string   `yaml:"url,omitempty"`
	Author  string   `yaml:"author,omitempty"`
	Source  string   `yaml:"source"`
	Fetched string   `yaml:"fetched"`
	Tags    []string `yaml:"tags,omitempty"`
}

func (e *obsidianExporter) Export(ctx context.Context, d digest.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(e.vaultPath, e.folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vault folder: %w", err)
	}

	fm, err := yaml.Marshal(noteFrontmatter{
		Title:   d.Title,
		URL:     d.URL,
		Author:  d.Author,
		Source:  strconv.FormatInt(d.SourceID, 10),
		Fetched: d.FetchedAt.UTC().Format(time.RFC3339),
		Tags:    d.Tags,
	})
	if err != nil {
		return fmt.Errorf("encode frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	if d.Summary != "" {
		b.WriteString(d.Summary)
		b.WriteString("\n")
	}
	if e.includeContent && d.Content != "" {
		b.WriteString("\n## Content\n\n")
		b.WriteString(d.Content)
		b.WriteString("\n")
	}

	path := filepath.Join(dir, noteFilename(d))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	return nil
}

// noteFilename builds a stable, filesystem-safe name from the digest title
// and a short id suffix so retitled items never collide.
func noteFilename(d digest.Digest) string {
	slug := slugify(d.Title)
	if slug == "" {
		slug = "untitled"
	}
	suffix := d.ID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return slug + "-" + suffix + ".md"
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > 80 {
		out = out[:80]
	}
	return strings.Trim(out, "-")
}

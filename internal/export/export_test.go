package export

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/reconly/reconly/internal/digest"
)

func sampleDigest() digest.Digest {
	return digest.Digest{
		ID:        "0f4a2d1c-9b1e-4e2a-8f10-5ad37c2b6e90",
		SourceID:  7,
		Title:     "Go 1.24 Released!",
		URL:       "https://example.com/go-1-24",
		Author:    "The Go Team",
		Content:   "Full article body.",
		Summary:   "Go 1.24 ships generics improvements.",
		Tags:      []string{"go", "release"},
		FetchedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestObsidianExport(t *testing.T) {
	vault := t.TempDir()
	exp, err := NewObsidian(map[string]any{"vault_path": vault, "folder": "Notes"})
	if err != nil {
		t.Fatalf("new obsidian: %v", err)
	}
	if err := exp.Export(context.Background(), sampleDigest()); err != nil {
		t.Fatalf("export: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(vault, "Notes", "*.md"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one note, got %v (%v)", matches, err)
	}
	name := filepath.Base(matches[0])
	if !strings.HasPrefix(name, "go-1-24-released-") {
		t.Fatalf("unexpected note filename %s", name)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	body := string(data)
	if !strings.HasPrefix(body, "---\n") {
		t.Fatalf("note missing frontmatter:\n%s", body)
	}
	for _, want := range []string{"title: Go 1.24 Released!", "url: https://example.com/go-1-24", "source: \"7\"", "- go", "Go 1.24 ships generics improvements."} {
		if !strings.Contains(body, want) {
			t.Fatalf("note missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Full article body.") {
		t.Fatalf("content must be omitted unless include_content is set")
	}
}

func TestObsidianExportIncludeContent(t *testing.T) {
	vault := t.TempDir()
	exp, err := NewObsidian(map[string]any{"vault_path": vault, "include_content": true})
	if err != nil {
		t.Fatalf("new obsidian: %v", err)
	}
	if err := exp.Export(context.Background(), sampleDigest()); err != nil {
		t.Fatalf("export: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(vault, "Reconly", "*.md"))
	if len(matches) != 1 {
		t.Fatalf("expected one note in default folder, got %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	if !strings.Contains(string(data), "Full article body.") {
		t.Fatalf("expected content section in note")
	}
}

func TestObsidianRequiresVaultPath(t *testing.T) {
	if _, err := NewObsidian(map[string]any{}); err == nil {
		t.Fatalf("expected error without vault_path")
	}
}

func TestJSONFileExportAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "digests.jsonl")
	exp, err := NewJSONFile(map[string]any{"path": path})
	if err != nil {
		t.Fatalf("new jsonfile: %v", err)
	}
	d := sampleDigest()
	if err := exp.Export(context.Background(), d); err != nil {
		t.Fatalf("export: %v", err)
	}
	d.ID = "second"
	d.Title = "Another"
	if err := exp.Export(context.Background(), d); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var got digest.Digest
		if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d", lines)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":        "hello-world",
		"  spaces   galore  ":  "spaces-galore",
		"émoji 🎉 title":        "moji-title",
		"":                     "",
		"UPPER_case/and:stuff": "upper-case-and-stuff",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

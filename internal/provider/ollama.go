package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/registry"
)

// OllamaDescriptor describes the built-in Ollama provider. It speaks the
// OpenAI-compatible chat API exposed by Ollama, vLLM and similar local
// runtimes, so no API key is required.
func OllamaDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindProvider,
		Name:        "ollama",
		DisplayName: "Ollama",
		Description: "Summarizes content with a local Ollama model",
		Icon:        "ollama",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "base_url", Type: registry.FieldConnection, Label: "Server URL", Default: "http://localhost:11434/v1", EnvVar: "OLLAMA_BASE_URL", Editable: true},
			{Key: "model", Type: registry.FieldString, Label: "Model", Default: "llama3.2", Required: true, Editable: true},
			{Key: "timeout_seconds", Type: registry.FieldInteger, Label: "Request timeout (seconds)", Default: "120", Editable: true},
		},
		Capabilities: registry.Capabilities{IsLocal: true},
	}
}

type ollamaProvider struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllama constructs the Ollama provider from its resolved configuration.
func NewOllama(cfg map[string]any) (Provider, error) {
	base := options.String(cfg, "base_url", "http://localhost:11434/v1")
	base = strings.TrimSuffix(base, "/")
	if !strings.HasSuffix(base, "/chat/completions") {
		base += "/chat/completions"
	}
	return &ollamaProvider{
		endpoint: base,
		model:    options.String(cfg, "model", "llama3.2"),
		client: &http.Client{
			Timeout: time.Duration(options.Int(cfg, "timeout_seconds", 120)) * time.Second,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *ollamaProvider) Summarize(ctx context.Context, req Request) (Summary, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Summary{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Summary{}, fmt.Errorf("call %s: %w", p.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Summary{}, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Summary{}, fmt.Errorf("ollama: no choices in response")
	}
	text, tags := parseSummary(parsed.Choices[0].Message.Content)
	return Summary{Text: text, Tags: tags, Model: parsed.Model}, nil
}

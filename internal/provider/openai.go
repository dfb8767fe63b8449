package provider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/registry"
)

// OpenAIDescriptor describes the built-in OpenAI summarization provider. The
// API key is usually supplied through the environment, which locks the field.
func OpenAIDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindProvider,
		Name:        "openai",
		DisplayName: "OpenAI",
		Description: "Summarizes content with OpenAI chat models",
		Icon:        "openai",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "api_key", Type: registry.FieldString, Label: "API key", Required: true, EnvVar: "OPENAI_API_KEY", Secret: true, Editable: true},
			{Key: "model", Type: registry.FieldString, Label: "Model", Default: "gpt-4o-mini", Editable: true},
			{Key: "base_url", Type: registry.FieldConnection, Label: "API base URL", Editable: true},
			{Key: "max_tokens", Type: registry.FieldInteger, Label: "Max response tokens", Default: "1024", Editable: true},
		},
		Capabilities: registry.Capabilities{RequiresAPIKey: true},
	}
}

type openaiProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAI constructs the OpenAI provider from its resolved configuration.
func NewOpenAI(cfg map[string]any) (Provider, error) {
	apiKey := options.String(cfg, "api_key", "")
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api_key is not configured")
	}
	conf := openai.DefaultConfig(apiKey)
	if base := options.String(cfg, "base_url", ""); base != "" {
		conf.BaseURL = base
	}
	return &openaiProvider{
		client:    openai.NewClientWithConfig(conf),
		model:     options.String(cfg, "model", "gpt-4o-mini"),
		maxTokens: options.Int(cfg, "max_tokens", 1024),
	}, nil
}

func (p *openaiProvider) Summarize(ctx context.Context, req Request) (Summary, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Summary{}, fmt.Errorf("openai: empty response")
	}
	text, tags := parseSummary(resp.Choices[0].Message.Content)
	return Summary{Text: text, Tags: tags, Model: resp.Model}, nil
}

package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/registry"
)

// OpenAIDescriptor describes the built-in OpenAI embedding provider.
func OpenAIDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindEmbedding,
		Name:        "openai",
		DisplayName: "OpenAI Embeddings",
		Description: "Generates embedding vectors with OpenAI models",
		Icon:        "openai",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "api_key", Type: registry.FieldString, Label: "API key", Required: true, EnvVar: "OPENAI_API_KEY", Secret: true, Editable: true},
			{Key: "model", Type: registry.FieldString, Label: "Model", Default: "text-embedding-3-small", Editable: true},
			{Key: "base_url", Type: registry.FieldConnection, Label: "API base URL", Editable: true},
		},
		Capabilities: registry.Capabilities{RequiresAPIKey: true},
	}
}

type openaiEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAI constructs the OpenAI embedding provider from its resolved
// configuration.
func NewOpenAI(cfg map[string]any) (Provider, error) {
	apiKey := options.String(cfg, "api_key", "")
	if apiKey == "" {
		return nil, fmt.Errorf("openai embeddings: api_key is not configured")
	}
	conf := openai.DefaultConfig(apiKey)
	if base := options.String(cfg, "base_url", ""); base != "" {
		conf.BaseURL = base
	}
	return &openaiEmbedder{
		client: openai.NewClientWithConfig(conf),
		model:  openai.EmbeddingModel(options.String(cfg, "model", "text-embedding-3-small")),
	}, nil
}

func (e *openaiEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: e.model,
		Input: inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(inputs))
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

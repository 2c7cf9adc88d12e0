package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
)

// Embedder turns texts into vectors. The index only assumes vectors of
// a consistent dimension per instance.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// OpenAIEmbedder calls the embeddings endpoint of an OpenAI-compatible
// API through the SDK client the rest of the stack already carries.
type OpenAIEmbedder struct {
	client *openaisdk.Client
	model  string
}

func NewOpenAIEmbedder(client *openaisdk.Client, model string) (*OpenAIEmbedder, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("embedding model is required")
	}
	return &OpenAIEmbedder{client: client, model: model}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings count mismatch: want %d, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

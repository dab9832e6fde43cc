package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/resume-screener/internal/embedding"
	"google.golang.org/genai"
)

const (
	defaultEmbeddingModel = "gemini-embedding-001"
	embeddingTaskType     = "SEMANTIC_SIMILARITY"
)

// Embedder implements embedding.Model with the Gemini embedding API.
type Embedder struct {
	models models
	model  string
}

// EmbeddingLoader defers client creation until the first embedding is needed.
func EmbeddingLoader(apiKey, model string) embedding.Loader {
	return func(ctx context.Context) (embedding.Model, error) {
		client, err := NewClient(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return newEmbedder(client.Models, model), nil
	}
}

func newEmbedder(m models, model string) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}
	return &Embedder{models: m, model: model}
}

func (e *Embedder) Embed(ctx context.Context, text string) (embedding.Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	resp, err := e.models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: embeddingTaskType,
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("embed content: got %d embeddings for %d texts", got, len(texts))
	}

	out := make([]embedding.Vector, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("embed content: empty embedding at %d", i)
		}
		out[i] = embedding.Vector(e.Values)
	}

	return out, nil
}

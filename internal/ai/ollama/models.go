package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/resume-screener/internal/embedding"
)

const (
	// DefaultEmbeddingModel is the Ollama build of all-MiniLM-L6-v2.
	DefaultEmbeddingModel = "all-minilm"
	DefaultModel          = "llama3.2:1b"
)

// Embedder implements embedding.Model on top of a Client.
type Embedder struct {
	client *Client
	model  string
}

// EmbeddingLoader returns a loader that verifies the model is pulled before
// handing out an Embedder.
func EmbeddingLoader(client *Client, model string) embedding.Loader {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultEmbeddingModel
	}

	return func(ctx context.Context) (embedding.Model, error) {
		if err := client.Show(ctx, model); err != nil {
			return nil, fmt.Errorf("model %q is not available: %w", model, err)
		}
		return &Embedder{client: client, model: model}, nil
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) (embedding.Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	raw, err := e.client.Embed(ctx, e.model, texts)
	if err != nil {
		return nil, err
	}

	out := make([]embedding.Vector, len(raw))
	for i, v := range raw {
		out[i] = embedding.Vector(v)
	}
	return out, nil
}

// Generator produces JSON-formatted completions for a fixed model.
type Generator struct {
	client *Client
	model  string
}

func NewGenerator(client *Client, model string) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt must not be empty")
	}
	return g.client.Generate(ctx, g.model, prompt, true)
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Package ollama talks to a local or hosted Ollama server for embeddings and
// text generation through its OpenAI-compatible /v1 API.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultURL     = "http://localhost:11434"
	defaultTimeout = 2 * time.Minute
	apiPath        = "/v1"
	// Ollama ignores the key but the client always sends one.
	anonymousToken = "ollama"
	temperature    = 0.1
)

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Client wraps an OpenAI client pointed at Ollama. It is safe for concurrent use.
type Client struct {
	api     *openai.Client
	baseURL string
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if !strings.HasSuffix(baseURL, apiPath) {
		baseURL += apiPath
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		token = anonymousToken
	}

	clientCfg := openai.DefaultConfig(token)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:     openai.NewClientWithConfig(clientCfg),
		baseURL: baseURL,
		logger:  logger,
	}
}

// Show checks that the model is present on the server.
func (c *Client) Show(ctx context.Context, model string) error {
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("model name is required")
	}

	c.logger.Debug("make request", zap.String("url", c.baseURL+"/models/"+model))

	if _, err := c.api.GetModel(ctx, model); err != nil {
		return fmt.Errorf("ollama show %q: %w", model, err)
	}

	return nil
}

// Embed returns one embedding per input, in input order.
func (c *Client) Embed(ctx context.Context, model string, input []string) ([][]float32, error) {
	c.logger.Debug("make request", zap.String("url", c.baseURL+"/embeddings"), zap.Int("inputs", len(input)))

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("ollama embed: got %d embeddings for %d inputs", len(resp.Data), len(input))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		if d.Index != i {
			return nil, fmt.Errorf("ollama embed: missing embedding for input %d", i)
		}
		out[i] = d.Embedding
	}

	return out, nil
}

// Generate runs a single chat completion. With jsonOutput the server
// constrains the reply to a JSON object.
func (c *Client) Generate(ctx context.Context, model, prompt string, jsonOutput bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if jsonOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	c.logger.Debug("make request", zap.String("url", c.baseURL+"/chat/completions"))

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama generate: no choices in response")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", fmt.Errorf("ollama generate: empty response")
	}

	return output, nil
}

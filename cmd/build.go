package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/ai/ollama"
	"github.com/spigell/resume-screener/internal/embedding"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/secrets"
	"github.com/spigell/resume-screener/internal/skills"

	"go.uber.org/zap"
)

const (
	providerOllama = "ollama"
	providerGemini = "gemini"
)

// components are the long-lived handles shared by every command.
type components struct {
	screener *screening.Screener
}

func normalizeProvider(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return providerOllama
	}
	return name
}

func buildComponents(ctx context.Context, config *Config, logger *zap.Logger) (*components, error) {
	genProvider := normalizeProvider(config.Generative.Provider)
	embProvider := normalizeProvider(config.Embedding.Provider)

	for _, p := range []string{genProvider, embProvider} {
		if p != providerOllama && p != providerGemini {
			return nil, fmt.Errorf("unsupported ai provider: %s", p)
		}
	}

	var ollamaClient *ollama.Client
	if genProvider == providerOllama || embProvider == providerOllama {
		token, err := secrets.Optional(secrets.Source{
			Name:  "ollama token",
			Value: config.Ollama.Token,
			File:  config.Ollama.TokenFile,
			Env:   "OLLAMA_API_KEY",
		})
		if err != nil {
			return nil, err
		}

		ollamaClient = ollama.New(ollama.Config{
			URL:     config.Ollama.URL,
			Token:   token,
			Timeout: config.Ollama.Timeout,
		}, logger.With(zap.String("ai_provider", providerOllama)))
	}

	provider := embedding.NewProvider(
		embeddingModelName(embProvider, config.Embedding.Model),
		embeddingLoader(embProvider, config, ollamaClient, logger),
		logger,
	)

	generator := newGenerator(ctx, genProvider, config, ollamaClient, logger)

	llm := scoring.NewLLMScorer(generator, scoring.LLMOptions{
		Provider:       genProvider,
		MaxLogLength:   config.Generative.MaxLogLength,
		MaxResumeRunes: config.Generative.MaxResumeRunes,
		MaxJobRunes:    config.Generative.MaxJobRunes,
	}, logger)

	orchestrator := scoring.NewOrchestrator(llm, scoring.NewCosineScorer(provider), logger)

	matcher := skills.NewMatcher(skills.Default.With(config.Skills.Extra...), provider, logger)

	screener := screening.New(provider, orchestrator, matcher, screening.Options{
		TopK: config.Skills.TopK,
	}, logger)

	return &components{screener: screener}, nil
}

func embeddingModelName(provider, model string) string {
	if model = strings.TrimSpace(model); model != "" {
		return model
	}
	if provider == providerGemini {
		return "gemini-embedding-001"
	}
	return ollama.DefaultEmbeddingModel
}

func embeddingLoader(provider string, config *Config, client *ollama.Client, logger *zap.Logger) embedding.Loader {
	model := embeddingModelName(provider, config.Embedding.Model)

	if provider == providerGemini {
		apiKey, err := geminiAPIKey(config.Gemini)
		if err != nil {
			logger.Warn("gemini embeddings will be unavailable", zap.Error(err))
		}
		return gemini.EmbeddingLoader(apiKey, model)
	}

	return ollama.EmbeddingLoader(client, model)
}

// newGenerator never fails: a generator that cannot be built makes every
// scoring attempt fall back to cosine similarity.
func newGenerator(ctx context.Context, provider string, config *Config, client *ollama.Client, logger *zap.Logger) scoring.Generator {
	if provider == providerOllama {
		return ollama.NewGenerator(client, config.Generative.Model)
	}

	apiKey, err := geminiAPIKey(config.Gemini)
	if err != nil {
		logger.Warn("generative scoring disabled", zap.Error(err))
		return scoring.UnavailableGenerator{Err: err}
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", config.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Generative.Model, config.Gemini.MaxRetries, genLogger)
	if err != nil {
		logger.Warn("generative scoring disabled", zap.Error(err))
		return scoring.UnavailableGenerator{Err: err}
	}

	return generator
}

func geminiAPIKey(cfg *GeminiConfig) (string, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return "", fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY)", err)
	}
	return key, nil
}

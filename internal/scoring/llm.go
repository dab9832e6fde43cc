package scoring

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/utils"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// Generator is a generative model that answers a prompt with free-form text.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// UnavailableGenerator stands in for a generator that could not be built,
// so that every scoring attempt reports why and falls back.
type UnavailableGenerator struct {
	Err error
}

func (u UnavailableGenerator) GenerateContent(context.Context, string) (string, error) {
	if u.Err == nil {
		return "", errors.New("generative model is not configured")
	}
	return "", u.Err
}

func (UnavailableGenerator) Model() string { return "" }

type LLMOptions struct {
	Provider       string
	MaxLogLength   int
	MaxResumeRunes int
	MaxJobRunes    int
}

// LLMScorer asks a generative model for a score and justification.
type LLMScorer struct {
	generator Generator
	opts      LLMOptions
	logger    *zap.Logger
}

func NewLLMScorer(generator Generator, opts LLMOptions, log *zap.Logger) *LLMScorer {
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if opts.MaxResumeRunes <= 0 {
		opts.MaxResumeRunes = defaultMaxResumeRunes
	}
	if opts.MaxJobRunes <= 0 {
		opts.MaxJobRunes = defaultMaxJobRunes
	}

	model := ""
	if generator != nil {
		model = generator.Model()
	}

	return &LLMScorer{
		generator: generator,
		opts:      opts,
		logger:    logger.WithCommonFields(log, opts.Provider, model),
	}
}

// ScoreWithLLM never fails loudly: every problem is reported as a Failure.
func (s *LLMScorer) ScoreWithLLM(ctx context.Context, title, description, resume string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("generative scorer panicked", zap.Any("panic", r))
			result = Failure{Err: fmt.Errorf("%w: panic: %v", ErrModelCall, r)}
		}
	}()

	if s.generator == nil {
		return Failure{Err: fmt.Errorf("%w: generative model is not configured", ErrModelCall)}
	}

	prompt := buildPrompt(title, description, resume, s.opts.MaxJobRunes, s.opts.MaxResumeRunes)

	s.logger.Debug("generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.opts.MaxLogLength)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn("generative model call failed", zap.Error(err))
		return Failure{Err: fmt.Errorf("%w: %w", ErrModelCall, err)}
	}

	s.logger.Debug("generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.opts.MaxLogLength)),
	)

	score, justification, err := ParseReply(raw)
	if err != nil {
		s.logger.Warn("could not parse model output", zap.Error(err))
		return Failure{Err: err, Raw: raw}
	}

	return Success{Score: score, Justification: justification, Raw: raw}
}

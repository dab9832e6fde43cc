package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/resume-screener/internal/logger"
	"go.uber.org/zap"
)

type GenerativeScorer interface {
	ScoreWithLLM(ctx context.Context, title, description, resume string) Result
}

type FallbackScorer interface {
	ScoreWithCosine(ctx context.Context, resume, description string) (CosineScore, error)
}

// Orchestrator tries the generative scorer once and falls back to the cosine
// scorer on any failure. The two scores are never blended.
type Orchestrator struct {
	generative GenerativeScorer
	fallback   FallbackScorer
	logger     *zap.Logger
}

func NewOrchestrator(generative GenerativeScorer, fallback FallbackScorer, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{generative: generative, fallback: fallback, logger: log}
}

// Score returns an error only when the fallback itself cannot run.
func (o *Orchestrator) Score(ctx context.Context, title, description, resume string) (Outcome, error) {
	var result Result = Failure{Err: fmt.Errorf("%w: generative scorer is not configured", ErrModelCall)}
	if o.generative != nil {
		result = o.generative.ScoreWithLLM(ctx, title, description, resume)
	}

	switch r := result.(type) {
	case Success:
		o.logger.Info("scored", append(logger.SourceFields(string(SourceGenerative)), zap.Float64("score", r.Score))...)
		return Outcome{
			OK:            true,
			Source:        SourceGenerative,
			Score:         r.Score,
			Justification: r.Justification,
			Raw:           r.Raw,
		}, nil
	case Failure:
		return o.fallbackOutcome(ctx, description, resume, r)
	default:
		return o.fallbackOutcome(ctx, description, resume, Failure{
			Err: fmt.Errorf("%w: unexpected result %T", ErrModelCall, result),
		})
	}
}

func (o *Orchestrator) fallbackOutcome(ctx context.Context, description, resume string, failure Failure) (Outcome, error) {
	if o.fallback == nil {
		return Outcome{}, errors.New("fallback scorer is not configured")
	}

	o.logger.Info("falling back to cosine similarity", zap.String("reason", failure.Error()))

	cos, err := o.fallback.ScoreWithCosine(ctx, resume, description)
	if err != nil {
		return Outcome{}, fmt.Errorf("fallback scoring: %w", err)
	}

	o.logger.Info("scored",
		append(logger.SourceFields(string(SourceFallback)),
			zap.Float64("score", cos.Score),
			zap.Float64("similarity", cos.Similarity),
		)...,
	)

	similarity := cos.Similarity
	return Outcome{
		OK:            false,
		Source:        SourceFallback,
		Score:         cos.Score,
		Justification: fmt.Sprintf("Cosine similarity: %.4f", similarity),
		Raw:           failure.Raw,
		Error:         failure.Error(),
		Similarity:    &similarity,
	}, nil
}

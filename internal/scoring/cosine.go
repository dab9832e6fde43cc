package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spigell/resume-screener/internal/embedding"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (embedding.Vector, error)
}

// CosineScore is the fallback result. Similarity is in [-1, 1], Score in [0, 10].
type CosineScore struct {
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// CosineScorer scores by embedding similarity. It is deterministic for a
// given embedding model.
type CosineScorer struct {
	embedder Embedder
}

func NewCosineScorer(embedder Embedder) *CosineScorer {
	return &CosineScorer{embedder: embedder}
}

// ScoreWithCosine embeds both texts and maps their cosine similarity onto
// 0-10 with SimilarityToScore. Empty text, or a text embedding to the zero
// vector, yields similarity 0 and score 0. Embedding failures are returned
// as is and wrap embedding.ErrModelUnavailable.
func (s *CosineScorer) ScoreWithCosine(ctx context.Context, resume, description string) (CosineScore, error) {
	if strings.TrimSpace(resume) == "" || strings.TrimSpace(description) == "" {
		return CosineScore{}, nil
	}

	a, err := s.embedder.Embed(ctx, resume)
	if err != nil {
		return CosineScore{}, fmt.Errorf("embed resume: %w", err)
	}

	b, err := s.embedder.Embed(ctx, description)
	if err != nil {
		return CosineScore{}, fmt.Errorf("embed job description: %w", err)
	}

	if embedding.Norm(a) == 0 || embedding.Norm(b) == 0 {
		return CosineScore{}, nil
	}

	sim, err := embedding.Cosine(a, b)
	if err != nil {
		return CosineScore{}, fmt.Errorf("%w: %w", embedding.ErrModelUnavailable, err)
	}

	return CosineScore{Score: SimilarityToScore(sim), Similarity: sim}, nil
}

// SimilarityToScore maps a cosine similarity linearly from [-1, 1] onto
// [0, 10]: score = clamp((sim + 1) / 2 * 10, 0, 10), rounded to two decimals.
func SimilarityToScore(sim float64) float64 {
	if math.IsNaN(sim) {
		return 0
	}

	score := clampScore((sim + 1) / 2 * maxScore)
	return math.Round(score*100) / 100
}

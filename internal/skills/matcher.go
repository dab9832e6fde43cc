package skills

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spigell/resume-screener/internal/embedding"
	"go.uber.org/zap"
)

// DefaultTopK is used when Top is called with k <= 0.
const DefaultTopK = 5

// BatchEmbedder embeds many texts at once, keeping input order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]embedding.Vector, error)
}

// Match is a taxonomy skill with its cosine similarity to the resume.
type Match struct {
	Skill string  `json:"skill"`
	Score float64 `json:"score"`
}

// Matcher ranks taxonomy skills by similarity to a resume vector. Taxonomy
// vectors are computed on first use and reused afterwards.
type Matcher struct {
	taxonomy Taxonomy
	embedder BatchEmbedder
	logger   *zap.Logger

	mu      sync.Mutex
	vectors []embedding.Vector
}

func NewMatcher(taxonomy Taxonomy, embedder BatchEmbedder, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(taxonomy) == 0 {
		taxonomy = Default
	}

	return &Matcher{taxonomy: taxonomy, embedder: embedder, logger: logger}
}

func (m *Matcher) Taxonomy() Taxonomy {
	return m.taxonomy
}

func (m *Matcher) taxonomyVectors(ctx context.Context) ([]embedding.Vector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vectors != nil {
		return m.vectors, nil
	}

	vectors, err := m.embedder.EmbedBatch(ctx, m.taxonomy)
	if err != nil {
		return nil, fmt.Errorf("embed skill taxonomy: %w", err)
	}

	m.logger.Debug("skill taxonomy embedded", zap.Int("skills", len(vectors)))
	m.vectors = vectors

	return vectors, nil
}

// Top returns the k skills most similar to the resume vector, highest first.
// Equal scores keep taxonomy order.
func (m *Matcher) Top(ctx context.Context, resume embedding.Vector, k int) ([]Match, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vectors, err := m.taxonomyVectors(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(vectors))
	for i, vec := range vectors {
		sim, err := embedding.Cosine(resume, vec)
		if err != nil {
			return nil, fmt.Errorf("%w: skill %q: %w", embedding.ErrModelUnavailable, m.taxonomy[i], err)
		}
		matches = append(matches, Match{Skill: m.taxonomy[i], Score: sim})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}

// Package embedding owns the process-wide embedding model handle and the
// vector math shared by scoring and skill matching.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrModelUnavailable is returned when the embedding model cannot be loaded or run.
// There is no embedding fallback beneath this layer.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Vector is a fixed-dimension embedding. Vectors are never mutated after creation.
type Vector []float32

// Model is a loaded embedding model.
type Model interface {
	Embed(ctx context.Context, text string) (Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
}

// Loader performs the one-time, potentially slow model load.
type Loader func(ctx context.Context) (Model, error)

// Provider lazily loads a Model exactly once and shares it across callers.
type Provider struct {
	name   string
	loader Loader
	logger *zap.Logger

	mu    sync.Mutex
	model Model

	cacheMu sync.Mutex
	cache   map[string]Vector
	order   []string
}

// cacheSize bounds the recently embedded texts kept by Embed. A request
// embeds the resume for skill matching and again for the fallback score.
const cacheSize = 16

func NewProvider(name string, loader Loader, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		name:   strings.TrimSpace(name),
		loader: loader,
		logger: logger,
	}
}

// Name returns the configured model name.
func (p *Provider) Name() string {
	return p.name
}

// Load returns the shared model handle, loading it on first use.
// A failed load is not cached, the next call tries again.
func (p *Provider) Load(ctx context.Context) (Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return p.model, nil
	}

	if p.loader == nil {
		return nil, fmt.Errorf("%w: no loader configured for %q", ErrModelUnavailable, p.name)
	}

	p.logger.Info("loading embedding model", zap.String("model", p.name))

	model, err := p.loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load %q: %w", ErrModelUnavailable, p.name, err)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: loader for %q returned no model", ErrModelUnavailable, p.name)
	}

	p.model = model
	p.logger.Debug("embedding model loaded", zap.String("model", p.name))

	return p.model, nil
}

// Embed converts a single text into a vector.
func (p *Provider) Embed(ctx context.Context, text string) (Vector, error) {
	if vec, ok := p.cached(text); ok {
		return vec, nil
	}

	model, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}

	vec, err := model.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed: %w", ErrModelUnavailable, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: embed: empty vector", ErrModelUnavailable)
	}

	p.remember(text, vec)

	return vec, nil
}

func (p *Provider) cached(text string) (Vector, bool) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()

	vec, ok := p.cache[text]
	return vec, ok
}

// remember stores vec for text, evicting the oldest entry when full.
func (p *Provider) remember(text string, vec Vector) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()

	if p.cache == nil {
		p.cache = make(map[string]Vector, cacheSize)
	}
	if _, ok := p.cache[text]; ok {
		return
	}

	if len(p.order) >= cacheSize {
		delete(p.cache, p.order[0])
		p.order = p.order[1:]
	}

	p.cache[text] = vec
	p.order = append(p.order, text)
}

// EmbedBatch converts texts into vectors. The result is one-to-one with the
// input and keeps its order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return []Vector{}, nil
	}

	model, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}

	vecs, err := model.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed batch: %w", ErrModelUnavailable, err)
	}

	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: embed batch: got %d vectors for %d texts", ErrModelUnavailable, len(vecs), len(texts))
	}

	return vecs, nil
}

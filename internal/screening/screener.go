// Package screening runs one resume against one job description: it
// validates the inputs, extracts text, parses contact fields, matches
// taxonomy skills and scores the fit.
package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/resume-screener/internal/embedding"
	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/skills"
	"github.com/spigell/resume-screener/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrMissingResume       = errors.New("please upload a resume file")
	ErrEmptyJobDescription = errors.New("please paste a job description")
)

const (
	// MaxRawOutput bounds the raw model output kept in a report.
	MaxRawOutput = 2000
	defaultTopK  = skills.DefaultTopK
)

type Request struct {
	Filename       string
	Data           []byte
	JobTitle       string
	JobDescription string
}

// Report is everything shown for a screened resume.
type Report struct {
	Filename string            `json:"filename"`
	JobTitle string            `json:"job_title,omitempty"`
	Fields   map[string]string `json:"fields"`
	Skills   []skills.Match    `json:"skills"`
	scoring.Outcome
}

type Embedder interface {
	Load(ctx context.Context) (embedding.Model, error)
	Embed(ctx context.Context, text string) (embedding.Vector, error)
}

type Scorer interface {
	Score(ctx context.Context, title, description, resume string) (scoring.Outcome, error)
}

type SkillMatcher interface {
	Top(ctx context.Context, resume embedding.Vector, k int) ([]skills.Match, error)
}

type Options struct {
	TopK int
}

// Screener holds the long-lived model handles. Build it once per process and
// share it; it is safe for concurrent use when its dependencies are.
type Screener struct {
	embedder Embedder
	scorer   Scorer
	skills   SkillMatcher
	opts     Options
	logger   *zap.Logger
}

func New(embedder Embedder, scorer Scorer, matcher SkillMatcher, opts Options, logger *zap.Logger) *Screener {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}

	return &Screener{
		embedder: embedder,
		scorer:   scorer,
		skills:   matcher,
		opts:     opts,
		logger:   logger,
	}
}

// Warmup loads the embedding model ahead of the first request.
func (s *Screener) Warmup(ctx context.Context) error {
	if _, err := s.embedder.Load(ctx); err != nil {
		return fmt.Errorf("warm up embedding model: %w", err)
	}
	return nil
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Filename) == "" || len(r.Data) == 0 {
		return ErrMissingResume
	}
	if strings.TrimSpace(r.JobDescription) == "" {
		return ErrEmptyJobDescription
	}
	return nil
}

// Text validates the request and returns the extracted resume text.
func (s *Screener) Text(req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	text, err := extract.Text(req.Data, req.Filename)
	if err != nil {
		return "", fmt.Errorf("could not extract text from the file, try a plain .txt resume: %w", err)
	}

	return text, nil
}

// Skills returns the top taxonomy matches for a resume text.
func (s *Screener) Skills(ctx context.Context, text string) ([]skills.Match, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed resume: %w", err)
	}

	matches, err := s.skills.Top(ctx, vec, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("match skills: %w", err)
	}

	return matches, nil
}

// Screen produces a report. Input validation happens before any model is
// called. Embedding failures are returned; generative failures are not,
// they show up as a fallback outcome.
func (s *Screener) Screen(ctx context.Context, req Request) (*Report, error) {
	text, err := s.Text(req)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("filename", req.Filename))

	fields := extract.BasicFields(text)
	log.Debug("parsed basic fields", zap.Int("fields", len(fields)))

	matches, err := s.Skills(ctx, text)
	if err != nil {
		return nil, err
	}

	outcome, err := s.scorer.Score(ctx, strings.TrimSpace(req.JobTitle), req.JobDescription, text)
	if err != nil {
		return nil, err
	}

	outcome.Raw = clipRunes(outcome.Raw, MaxRawOutput)

	log.Info("resume screened",
		zap.Float64("score", outcome.Score),
		zap.String("source", string(outcome.Source)),
		zap.String("raw_preview", utils.TruncateForLog(outcome.Raw, 200)),
	)

	return &Report{
		Filename: req.Filename,
		JobTitle: strings.TrimSpace(req.JobTitle),
		Fields:   fields,
		Skills:   matches,
		Outcome:  outcome,
	}, nil
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

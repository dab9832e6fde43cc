package scoring

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/spigell/resume-screener/internal/embedding"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	response   string
	err        error
	panicWith  any
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

// wordEmbedder embeds text as counts over a tiny fixed vocabulary.
type wordEmbedder struct {
	err   error
	calls int
}

var vocabulary = []string{"go", "kubernetes", "python", "sales", "marketing", "sql"}

func (w *wordEmbedder) Embed(_ context.Context, text string) (embedding.Vector, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	vec := make(embedding.Vector, len(vocabulary))
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for i, v := range vocabulary {
			if word == v {
				vec[i]++
			}
		}
	}
	return vec, nil
}

func TestScoreWithLLMSuccess(t *testing.T) {
	stub := &stubGenerator{response: "Score: 7/10 — strong match"}
	scorer := NewLLMScorer(stub, LLMOptions{Provider: "stub"}, zap.NewNop())

	result := scorer.ScoreWithLLM(context.Background(), "Backend engineer", "Go, Kubernetes", "Go developer")

	success, ok := result.(Success)
	if !ok {
		t.Fatalf("expected Success, got %#v", result)
	}

	if success.Score != 7.0 {
		t.Fatalf("expected score 7, got %v", success.Score)
	}

	if !strings.Contains(success.Justification, "strong match") {
		t.Fatalf("unexpected justification: %q", success.Justification)
	}

	if success.Raw != stub.response {
		t.Fatalf("expected raw output to be kept, got %q", success.Raw)
	}

	for _, want := range []string{"Backend engineer", "Go, Kubernetes", "Go developer"} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("prompt is missing %q", want)
		}
	}
}

func TestScoreWithLLMUnparseable(t *testing.T) {
	stub := &stubGenerator{response: "I cannot determine this."}
	scorer := NewLLMScorer(stub, LLMOptions{}, nil)

	result := scorer.ScoreWithLLM(context.Background(), "", "job", "resume")

	failure, ok := result.(Failure)
	if !ok {
		t.Fatalf("expected Failure, got %#v", result)
	}

	if failure.Error() == "" {
		t.Fatal("expected a non-empty error message")
	}

	if !errors.Is(failure.Err, ErrUnparseableOutput) {
		t.Fatalf("expected ErrUnparseableOutput, got %v", failure.Err)
	}

	if failure.Raw != "I cannot determine this." {
		t.Fatalf("expected raw output to equal model text, got %q", failure.Raw)
	}
}

func TestScoreWithLLMCallFailure(t *testing.T) {
	stub := &stubGenerator{err: errors.New("connection refused")}
	scorer := NewLLMScorer(stub, LLMOptions{}, nil)

	failure, ok := scorer.ScoreWithLLM(context.Background(), "", "job", "resume").(Failure)
	if !ok {
		t.Fatal("expected Failure")
	}

	if !errors.Is(failure.Err, ErrModelCall) {
		t.Fatalf("expected ErrModelCall, got %v", failure.Err)
	}

	if errors.Is(failure.Err, ErrUnparseableOutput) {
		t.Fatal("call failure must be distinguishable from parse failure")
	}

	if !strings.Contains(failure.Error(), "connection refused") {
		t.Fatalf("expected cause in message, got %q", failure.Error())
	}

	if failure.Raw != "" {
		t.Fatalf("expected no raw output, got %q", failure.Raw)
	}
}

func TestScoreWithLLMRecoversPanics(t *testing.T) {
	stub := &stubGenerator{panicWith: "boom"}
	scorer := NewLLMScorer(stub, LLMOptions{}, nil)

	failure, ok := scorer.ScoreWithLLM(context.Background(), "", "job", "resume").(Failure)
	if !ok || !errors.Is(failure.Err, ErrModelCall) {
		t.Fatalf("expected ErrModelCall failure, got %#v", failure)
	}
}

func TestScoreWithLLMUnavailableGenerator(t *testing.T) {
	scorer := NewLLMScorer(UnavailableGenerator{Err: errors.New("gemini api key is not configured")}, LLMOptions{}, nil)

	failure, ok := scorer.ScoreWithLLM(context.Background(), "", "job", "resume").(Failure)
	if !ok {
		t.Fatal("expected Failure")
	}

	if !strings.Contains(failure.Error(), "api key") {
		t.Fatalf("unexpected message: %q", failure.Error())
	}

	if _, ok := NewLLMScorer(nil, LLMOptions{}, nil).ScoreWithLLM(context.Background(), "", "j", "r").(Failure); !ok {
		t.Fatal("expected Failure for nil generator")
	}
}

func TestScoreWithCosineRanges(t *testing.T) {
	scorer := NewCosineScorer(&wordEmbedder{})

	pairs := [][2]string{
		{"go kubernetes sql", "go kubernetes"},
		{"sales marketing", "go python"},
		{"python python sql", "sql go"},
	}

	for _, p := range pairs {
		got, err := scorer.ScoreWithCosine(context.Background(), p[0], p[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Score < 0 || got.Score > 10 {
			t.Fatalf("score out of range for %v: %v", p, got.Score)
		}
		if got.Similarity < -1 || got.Similarity > 1 {
			t.Fatalf("similarity out of range for %v: %v", p, got.Similarity)
		}
	}
}

func TestScoreWithCosineSymmetric(t *testing.T) {
	scorer := NewCosineScorer(&wordEmbedder{})
	ctx := context.Background()

	ab, err := scorer.ScoreWithCosine(ctx, "go go kubernetes", "go sql python")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ba, err := scorer.ScoreWithCosine(ctx, "go sql python", "go go kubernetes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ab.Similarity != ba.Similarity {
		t.Fatalf("expected symmetric similarity, got %v and %v", ab.Similarity, ba.Similarity)
	}
}

func TestScoreWithCosineIdenticalText(t *testing.T) {
	scorer := NewCosineScorer(&wordEmbedder{})

	got, err := scorer.ScoreWithCosine(context.Background(), "go kubernetes sql", "go kubernetes sql")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(got.Similarity-1) > 1e-9 {
		t.Fatalf("expected similarity 1, got %v", got.Similarity)
	}

	if got.Score != 10 {
		t.Fatalf("expected score 10, got %v", got.Score)
	}
}

func TestScoreWithCosineEmptyInput(t *testing.T) {
	embedder := &wordEmbedder{}
	scorer := NewCosineScorer(embedder)

	for _, in := range [][2]string{{"", "go"}, {"go", "  \n"}} {
		got, err := scorer.ScoreWithCosine(context.Background(), in[0], in[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Similarity != 0 || got.Score != 0 {
			t.Fatalf("expected zero result for %q, got %+v", in, got)
		}
	}

	if embedder.calls != 0 {
		t.Fatalf("expected no embedding calls for empty input, got %d", embedder.calls)
	}
}

func TestScoreWithCosineZeroVector(t *testing.T) {
	scorer := NewCosineScorer(&wordEmbedder{})

	got, err := scorer.ScoreWithCosine(context.Background(), "unknown words only", "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != (CosineScore{}) {
		t.Fatalf("expected zero result, got %+v", got)
	}
}

func TestScoreWithCosinePropagatesModelUnavailable(t *testing.T) {
	scorer := NewCosineScorer(&wordEmbedder{err: embedding.ErrModelUnavailable})

	_, err := scorer.ScoreWithCosine(context.Background(), "go", "go")
	if !errors.Is(err, embedding.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestSimilarityToScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sim    float64
		expect float64
	}{
		{sim: -1, expect: 0},
		{sim: -0.5, expect: 2.5},
		{sim: 0, expect: 5},
		{sim: 0.2, expect: 6},
		{sim: 0.73219, expect: 8.66},
		{sim: 1, expect: 10},
		{sim: 1.5, expect: 10},
		{sim: -3, expect: 0},
		{sim: math.NaN(), expect: 0},
	}

	for _, tt := range tests {
		if got := SimilarityToScore(tt.sim); got != tt.expect {
			t.Fatalf("SimilarityToScore(%v): expected %v, got %v", tt.sim, tt.expect, got)
		}
	}

	prev := SimilarityToScore(-1)
	for sim := -0.99; sim <= 1; sim += 0.01 {
		got := SimilarityToScore(sim)
		if got < prev {
			t.Fatalf("mapping is not monotonic at %v", sim)
		}
		prev = got
	}
}

type failingGenerative struct {
	err error
	raw string
}

func (f failingGenerative) ScoreWithLLM(context.Context, string, string, string) Result {
	return Failure{Err: f.err, Raw: f.raw}
}

type fixedGenerative struct {
	result Result
}

func (f fixedGenerative) ScoreWithLLM(context.Context, string, string, string) Result {
	return f.result
}

type fixedFallback struct {
	score CosineScore
	err   error
	calls int
}

func (f *fixedFallback) ScoreWithCosine(context.Context, string, string) (CosineScore, error) {
	f.calls++
	return f.score, f.err
}

func TestOrchestratorUsesFallbackOnFailure(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	genErr := errors.New("llm offline")
	fallback := &fixedFallback{score: CosineScore{Score: 6.0, Similarity: 0.2}}

	o := NewOrchestrator(failingGenerative{err: genErr, raw: "garbled"}, fallback, zap.New(core))

	outcome, err := o.Score(context.Background(), "title", "job", "resume")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Score != 6.0 {
		t.Fatalf("expected score 6.0, got %v", outcome.Score)
	}

	if outcome.Error != genErr.Error() {
		t.Fatalf("expected generative error %q, got %q", genErr.Error(), outcome.Error)
	}

	if outcome.OK || outcome.Source != SourceFallback {
		t.Fatalf("expected fallback outcome, got %+v", outcome)
	}

	if outcome.Similarity == nil || *outcome.Similarity != 0.2 {
		t.Fatalf("expected similarity 0.2, got %v", outcome.Similarity)
	}

	if outcome.Raw != "garbled" {
		t.Fatalf("expected raw output for debugging, got %q", outcome.Raw)
	}

	if !strings.Contains(outcome.Justification, "0.2000") {
		t.Fatalf("unexpected justification: %q", outcome.Justification)
	}

	var sawFallback bool
	for _, entry := range observed.All() {
		if entry.ContextMap()["scoring_source"] == string(SourceFallback) {
			sawFallback = true
		}
	}
	if !sawFallback {
		t.Fatal("expected a log entry tagged with the fallback source")
	}
}

func TestOrchestratorUsesGenerativeOnSuccess(t *testing.T) {
	fallback := &fixedFallback{score: CosineScore{Score: 1}}
	o := NewOrchestrator(fixedGenerative{result: Success{Score: 8, Justification: "great", Raw: `{"score":8}`}}, fallback, nil)

	outcome, err := o.Score(context.Background(), "", "job", "resume")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.OK || outcome.Source != SourceGenerative || outcome.Score != 8 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	if outcome.Similarity != nil || outcome.Error != "" {
		t.Fatalf("generative outcome must not carry fallback fields: %+v", outcome)
	}

	if fallback.calls != 0 {
		t.Fatalf("fallback must not run after a generative success, ran %d times", fallback.calls)
	}
}

func TestOrchestratorPropagatesFallbackError(t *testing.T) {
	fallback := &fixedFallback{err: embedding.ErrModelUnavailable}
	o := NewOrchestrator(failingGenerative{err: errors.New("down")}, fallback, nil)

	_, err := o.Score(context.Background(), "", "job", "resume")
	if !errors.Is(err, embedding.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestOrchestratorTreatsNilResultAsFailure(t *testing.T) {
	fallback := &fixedFallback{score: CosineScore{Score: 3}}
	o := NewOrchestrator(fixedGenerative{}, fallback, nil)

	outcome, err := o.Score(context.Background(), "", "job", "resume")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Source != SourceFallback || outcome.Error == "" {
		t.Fatalf("expected fallback with error, got %+v", outcome)
	}
}

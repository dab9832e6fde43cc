// Package scoring rates a resume against a job description. A generative
// model is asked first; when it fails the score falls back to the cosine
// similarity of the two texts' embeddings.
package scoring

import "errors"

var (
	// ErrModelCall means the generative model could not be reached or failed to answer.
	ErrModelCall = errors.New("generative model call failed")
	// ErrUnparseableOutput means the model answered but no score could be extracted.
	ErrUnparseableOutput = errors.New("no score found in model output")
)

// Result is the outcome of the generative path: either Success or Failure.
type Result interface {
	isResult()
}

// Success carries a score extracted from the model output.
type Success struct {
	Score         float64
	Justification string
	Raw           string
}

// Failure carries the reason the generative path produced no score. Err wraps
// ErrModelCall or ErrUnparseableOutput. Raw is set when the model did answer.
type Failure struct {
	Err error
	Raw string
}

func (Success) isResult() {}
func (Failure) isResult() {}

func (f Failure) Error() string {
	if f.Err == nil {
		return ErrModelCall.Error()
	}
	return f.Err.Error()
}

// Source names the path that produced a final score.
type Source string

const (
	SourceGenerative Source = "generative"
	SourceFallback   Source = "fallback"
)

// Outcome is the shape-stable result handed to callers regardless of which
// path produced the score. OK reports whether the generative path succeeded.
// Similarity is only set when the fallback was used.
type Outcome struct {
	OK            bool     `json:"ok"`
	Source        Source   `json:"source"`
	Score         float64  `json:"score"`
	Justification string   `json:"justification"`
	Raw           string   `json:"raw_output,omitempty"`
	Error         string   `json:"error,omitempty"`
	Similarity    *float64 `json:"similarity,omitempty"`
}

package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
)

const (
	minScore = 0
	maxScore = 10

	// Characters stripped from the edges of a free-form justification.
	justificationCutset = " \t\r\n-–—:;,.|*"
	noJustification     = "(no justification given)"
	labelLookbehind     = 40
)

var (
	// An optionally signed number, an optional "/N" or "out of N" and an
	// optional percent sign. Boundaries are checked in findScore.
	scorePattern = regexp.MustCompile(`(?i)(-?)(\d+(?:\.\d+)?)(?:\s*(?:/|out\s+of)\s*(\d+(?:\.\d+)?))?(\s*%)?`)
	scoreLabel   = regexp.MustCompile(`(?i)(?:match\s+)?(?:score|rating)\s*(?:is)?\s*[:=]?\s*$`)
)

// reply is the JSON shape the prompt asks for.
type reply struct {
	Score         *float64 `mapstructure:"score"`
	Justification string   `mapstructure:"justification"`
	Reason        string   `mapstructure:"reason"`
}

// ParseScore returns the score found in free-form text. Candidates are
// standalone non-negative numbers in [0, 10]; a number written out of 10 wins
// over a labelled one, which wins over a bare one, which wins over a list
// marker. Numbers inside words, negative numbers, percentages and fractions
// of anything but 10 are skipped rather than clamped.
func ParseScore(text string) (float64, bool) {
	score, _, _, ok := findScore(text)
	return score, ok
}

// ParseReply extracts a score and a justification from raw model output.
// A JSON object with a "score" field is preferred; otherwise the free-form
// grammar of ParseScore is applied and the rest of the text becomes the
// justification.
func ParseReply(raw string) (float64, string, error) {
	if r, ok := decodeReply(raw); ok {
		justification := strings.TrimSpace(r.Justification)
		if justification == "" {
			justification = strings.TrimSpace(r.Reason)
		}
		return clampScore(*r.Score), orDefault(justification), nil
	}

	score, start, end, ok := findScore(raw)
	if !ok {
		return 0, "", fmt.Errorf("%w: no number between %d and %d", ErrUnparseableOutput, minScore, maxScore)
	}

	prefix := scoreLabel.ReplaceAllString(strings.TrimSpace(raw[:start]), "")
	justification := strings.TrimSpace(prefix + " " + raw[end:])
	justification = strings.Trim(justification, justificationCutset)

	return score, orDefault(justification), nil
}

func orDefault(justification string) string {
	if justification == "" {
		return noJustification
	}
	return justification
}

// Candidate ranks, highest first.
const (
	rankListMarker = iota
	rankBare
	rankLabelled
	rankOutOfTen
)

func findScore(text string) (score float64, start, end int, ok bool) {
	best := -1

	for _, m := range scorePattern.FindAllStringSubmatchIndex(text, -1) {
		// Signed, percent or glued to a word.
		if m[3] > m[2] || m[9] > m[8] {
			continue
		}
		if !boundaryBefore(text, m[0]) || !boundaryAfter(text, m[1]) {
			continue
		}

		value, err := strconv.ParseFloat(text[m[4]:m[5]], 64)
		if err != nil || value < minScore || value > maxScore {
			continue
		}

		rank := rankBare
		if m[6] >= 0 {
			denominator, err := strconv.ParseFloat(text[m[6]:m[7]], 64)
			if err != nil || denominator != maxScore {
				continue
			}
			rank = rankOutOfTen
		} else if scoreLabel.MatchString(text[max(0, m[0]-labelLookbehind):m[0]]) {
			rank = rankLabelled
		} else if isListMarker(text, m[0], m[1]) {
			rank = rankListMarker
		}

		if rank > best {
			best, score, start, end, ok = rank, value, m[0], m[1], true
		}
	}

	return score, start, end, ok
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, size := utf8.DecodeLastRuneInString(text[:i])
	if isWordRune(r) {
		return false
	}
	// Tail of "v1.2" but not of an ellipsis.
	if r == '.' && i-size > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:i-size])
		return !isWordRune(prev)
	}
	return true
}

func boundaryAfter(text string, i int) bool {
	if i == len(text) {
		return true
	}
	r, size := utf8.DecodeRuneInString(text[i:])
	if isWordRune(r) {
		return false
	}
	// Version-like "1.2.3".
	if r == '.' && i+size < len(text) {
		next, _ := utf8.DecodeRuneInString(text[i+size:])
		return !unicode.IsDigit(next)
	}
	return true
}

// isListMarker reports whether the number opens its line and is followed by
// "." or ")" as in "1. Strong Go background".
func isListMarker(text string, start, end int) bool {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	if strings.TrimSpace(text[lineStart:start]) != "" {
		return false
	}
	rest := text[end:]
	return strings.HasPrefix(rest, ". ") || strings.HasPrefix(rest, ") ") ||
		strings.HasPrefix(rest, ".\n") || strings.HasPrefix(rest, ")\n")
}

func decodeReply(raw string) (*reply, bool) {
	object := extractJSON(raw)
	if object == "" {
		return nil, false
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(object), &data); err != nil {
		return nil, false
	}

	var r reply
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &r,
	})
	if err != nil {
		return nil, false
	}

	if err := decoder.Decode(data); err != nil {
		return nil, false
	}

	if r.Score == nil || math.IsNaN(*r.Score) || math.IsInf(*r.Score, 0) {
		return nil, false
	}

	return &r, true
}

// extractJSON strips markdown fences and returns the outermost {...} block, if any.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return ""
	}

	return raw[start : end+1]
}

func clampScore(score float64) float64 {
	return math.Max(minScore, math.Min(maxScore, score))
}

package scoring

import (
	_ "embed"
	"strings"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxResumeRunes = 12000
	defaultMaxJobRunes    = 6000

	truncatedMarker = "\n...[truncated]"
	unspecified     = "(not specified)"
)

func buildPrompt(title, description, resume string, maxJobRunes, maxResumeRunes int) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = unspecified
	}

	return strings.NewReplacer(
		"{{JOB_TITLE}}", title,
		"{{JOB_DESCRIPTION}}", clip(description, maxJobRunes),
		"{{RESUME}}", clip(resume, maxResumeRunes),
	).Replace(promptTemplate)
}

// clip trims s to at most limit runes, marking the cut.
func clip(s string, limit int) string {
	s = strings.ToValidUTF8(strings.TrimSpace(s), "�")
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncatedMarker
}

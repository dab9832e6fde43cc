package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldLinkedIn = "linkedin"
	FieldGitHub   = "github"
	FieldWords    = "words"
)

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	linkedInPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/in/[A-Za-z0-9_\-%]+/?`)
	gitHubPattern   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[A-Za-z0-9_\-]+/?`)
)

// BasicFields makes a best effort guess at contact details. Missing fields
// are left out of the map; the word count is always present.
func BasicFields(text string) map[string]string {
	fields := map[string]string{
		FieldWords: strconv.Itoa(len(strings.Fields(text))),
	}

	if m := emailPattern.FindString(text); m != "" {
		fields[FieldEmail] = m
	}

	for _, m := range phonePattern.FindAllString(text, -1) {
		if digits := countDigits(m); digits >= 9 && digits <= 15 {
			fields[FieldPhone] = strings.TrimSpace(m)
			break
		}
	}

	if m := linkedInPattern.FindString(text); m != "" {
		fields[FieldLinkedIn] = strings.TrimSuffix(m, "/")
	}

	if m := gitHubPattern.FindString(text); m != "" {
		fields[FieldGitHub] = strings.TrimSuffix(m, "/")
	}

	if name := guessName(text); name != "" {
		fields[FieldName] = name
	}

	return fields
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// guessName takes the first of the leading lines that looks like a person's
// name: two to four words made of letters.
func guessName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}

	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}

		ok := true
		for _, w := range words {
			if !isNameWord(w) {
				ok = false
				break
			}
		}
		if ok {
			return strings.Join(words, " ")
		}
	}

	return ""
}

func isNameWord(w string) bool {
	first := true
	for _, r := range w {
		switch {
		case first && !unicode.IsUpper(r):
			return false
		case unicode.IsLetter(r), r == '-', r == '\'', r == '.':
		default:
			return false
		}
		first = false
	}
	return true
}

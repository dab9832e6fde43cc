// Package skills holds the skill taxonomy and ranks it against a resume
// embedding. Matches are informational and never feed into the score.
package skills

import "strings"

// Taxonomy is an ordered list of skill names. Order breaks ties between
// equally similar skills.
type Taxonomy []string

// Default is the built-in taxonomy. Extend it with With.
var Default = Taxonomy{
	"python", "java", "c++", "sql", "postgresql", "mongodb", "aws", "azure",
	"docker", "kubernetes", "fastapi", "flask", "django", "pandas", "numpy",
	"scikit-learn", "tensorflow", "pytorch", "nlp", "computer vision", "react",
	"javascript", "html", "css", "git", "linux", "spark", "hadoop",
	"data analysis", "etl", "rest api", "microservices",
}

// With returns a new taxonomy with extra skills appended. Names are
// lowercased and trimmed; blanks and duplicates are dropped.
func (t Taxonomy) With(extra ...string) Taxonomy {
	seen := make(map[string]struct{}, len(t)+len(extra))
	out := make(Taxonomy, 0, len(t)+len(extra))

	for _, list := range [][]string{t, extra} {
		for _, skill := range list {
			skill = strings.ToLower(strings.TrimSpace(skill))
			if skill == "" {
				continue
			}
			if _, ok := seen[skill]; ok {
				continue
			}
			seen[skill] = struct{}{}
			out = append(out, skill)
		}
	}

	return out
}

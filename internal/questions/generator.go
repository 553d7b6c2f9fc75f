// Package questions derives interview questions from a job description.
// Both steps are stateless pure functions: skill and keyword extraction
// over the description text, then templated question synthesis.
package questions

import "strings"

// skillLexicon is the fixed set of skills recognized in job descriptions.
var skillLexicon = []string{
	"react", "next.js", "typescript", "node", "css",
	"tailwind", "api", "sql", "python",
}

// baseQuestions open every generated set regardless of the description.
var baseQuestions = []string{
	"Tell me about a challenging project you worked on and your role.",
	"How do you approach debugging complex issues?",
	"Describe a time you improved performance in an application.",
}

const (
	maxKeywords   = 10
	minKeywordLen = 7
	maxSkillQs    = 4
	maxKeywordQs  = 3
)

// JobProfile is the result of parsing a job description.
type JobProfile struct {
	Skills   []string `json:"skills"`
	Keywords []string `json:"keywords"`
}

// ParseJobDescription extracts known skills and long distinctive words
// from a job description. Order is stable: skills in lexicon order,
// keywords in first-appearance order.
func ParseJobDescription(jd string) JobProfile {
	lower := strings.ToLower(jd)

	var skills []string
	for _, skill := range skillLexicon {
		if strings.Contains(lower, skill) {
			skills = append(skills, skill)
		}
	}

	var keywords []string
	seen := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(jd, isWordBoundary) {
		if len(word) < minKeywordLen {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}

	return JobProfile{Skills: skills, Keywords: keywords}
}

// GenerateQuestions builds an interview question list from a job profile:
// a base behavioural set, then per-skill and per-keyword questions,
// de-duplicated with order preserved.
func GenerateQuestions(profile JobProfile) []string {
	questions := make([]string, 0, len(baseQuestions)+maxSkillQs+maxKeywordQs)
	seen := make(map[string]struct{})

	add := func(q string) {
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		questions = append(questions, q)
	}

	for _, q := range baseQuestions {
		add(q)
	}
	for _, skill := range capped(profile.Skills, maxSkillQs) {
		add("How have you used " + skill + " in production systems?")
	}
	for _, keyword := range capped(profile.Keywords, maxKeywordQs) {
		add("What is your experience with " + keyword + "?")
	}

	return questions
}

func capped(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func isWordBoundary(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return false
	case r >= '0' && r <= '9':
		return false
	case r == '_':
		return false
	}
	return true
}

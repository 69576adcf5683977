// Package score ranks candidate postings against the configured chemistry
// vocabulary. Scoring is a pure function of (title, description, config):
// no I/O, no mutable state.
package score

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aminebalti55/ChemistryJobs/internal/config"
)

// Engine scores candidates with weighted keyword categories and applies the
// exclusion vocabulary.
type Engine struct {
	keywords   config.Keywords
	weights    config.ScoringConfig
	exclusions config.ExclusionConfig
}

// NewEngine builds an engine from the configured vocabulary and weights.
func NewEngine(kw config.Keywords, weights config.ScoringConfig, ex config.ExclusionConfig) *Engine {
	return &Engine{keywords: kw, weights: weights, exclusions: ex}
}

// Score returns the weighted relevance score for a posting and whether it is
// excluded outright. Excluded candidates always score 0, regardless of how
// many inclusion keywords also match.
func (e *Engine) Score(title, description string) (int, bool) {
	if e.ShouldExclude(title) {
		return 0, true
	}
	if e.ExperienceExceedsCeiling(description) {
		return 0, true
	}

	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	categories := []struct {
		terms  []string
		weight int
	}{
		{e.keywords.Core, e.weights.CoreWeight},
		{e.keywords.Specializations, e.weights.SpecializationWeight},
		{e.keywords.JobTitles, e.weights.JobTitleWeight},
		{e.keywords.Domains, e.weights.DomainWeight},
	}

	score := 0
	for _, cat := range categories {
		for _, term := range cat.terms {
			t := strings.ToLower(term)
			score += countWholeWord(titleLower, t) * cat.weight * e.weights.TitleMultiplier
			score += countWholeWord(descLower, t) * cat.weight
		}
	}
	return score, false
}

// Relevant reports whether a non-excluded score clears the configured cutoff.
func (e *Engine) Relevant(score int) bool {
	return score > e.weights.MinScore
}

// ShouldExclude reports whether the title contains an exclusion term as a
// whole word (case-insensitive). A carve-out suspends its term when one of
// its qualifiers co-occurs in the title.
func (e *Engine) ShouldExclude(title string) bool {
	titleLower := strings.ToLower(title)
	for _, term := range e.exclusions.Terms {
		if countWholeWord(titleLower, strings.ToLower(term)) == 0 {
			continue
		}
		if e.carvedOut(titleLower, term) {
			continue
		}
		return true
	}
	return false
}

func (e *Engine) carvedOut(titleLower, term string) bool {
	for _, co := range e.exclusions.CarveOuts {
		if !strings.EqualFold(co.Term, term) {
			continue
		}
		for _, q := range co.Qualifiers {
			if strings.Contains(titleLower, strings.ToLower(q)) {
				return true
			}
		}
	}
	return false
}

// Patterns for the stated-experience heuristic. French postings phrase the
// requirement several ways; each pattern captures the year count (ranges
// capture the lower bound, which is the actual requirement).
var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)entre\s+(\d{1,2})\s+et\s+\d{1,2}\s*(?:ans|années|years?)`),
	regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:ans|années|years?)\s*(?:d['’]|of\s+)?\s*(?:expérience|experience)`),
	regexp.MustCompile(`(?i)(?:expérience|experience)\s*(?:de|d['’]|:|of)?\s*(\d{1,2})\s*\+?\s*(?:ans|années|years?)`),
	regexp.MustCompile(`(?i)minimum\s+(?:de\s+)?(\d{1,2})\s*(?:ans|années|years?)`),
}

// ExperienceExceedsCeiling parses the stated required experience out of the
// description and reports whether it exceeds the configured ceiling. When the
// phrasing is ambiguous or absent the candidate is not excluded (fail open).
// Multiple matches resolve to the lowest stated figure, since that is the
// entry requirement.
func (e *Engine) ExperienceExceedsCeiling(description string) bool {
	required := -1
	for _, pat := range experiencePatterns {
		for _, m := range pat.FindAllStringSubmatch(description, -1) {
			years, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if required == -1 || years < required {
				required = years
			}
		}
	}
	if required == -1 {
		return false
	}
	return required > e.weights.MaxExperienceYears
}

// countWholeWord counts whole-word occurrences of term in text. Both inputs
// must already be lowercased. Boundaries are any rune that is neither a
// letter nor a digit, which keeps accented French terms intact.
func countWholeWord(text, term string) int {
	if term == "" {
		return 0
	}
	count := 0
	for start := 0; ; {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			break
		}
		idx += start
		end := idx + len(term)
		if boundaryBefore(text, idx) && boundaryAfter(text, end) {
			count++
		}
		start = end
	}
	return count
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

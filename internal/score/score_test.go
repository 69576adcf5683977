package score

import (
	"testing"

	"github.com/aminebalti55/ChemistryJobs/internal/config"
)

func testEngine() *Engine {
	weights := config.ScoringConfig{
		CoreWeight:           3,
		SpecializationWeight: 5,
		JobTitleWeight:       4,
		DomainWeight:         2,
		TitleMultiplier:      2,
		MinScore:             5,
		MaxExperienceYears:   5,
	}
	return NewEngine(config.DefaultKeywords(), weights, config.DefaultExclusions())
}

func TestScoreDeterminism(t *testing.T) {
	e := testEngine()
	title := "Ingénieur Chimie - Laboratoire"
	desc := "Analyse chimique et chromatographie en laboratoire."

	s1, ex1 := e.Score(title, desc)
	s2, ex2 := e.Score(title, desc)
	if s1 != s2 || ex1 != ex2 {
		t.Errorf("scoring not deterministic: (%d,%v) vs (%d,%v)", s1, ex1, s2, ex2)
	}
	if s1 <= 0 {
		t.Errorf("expected positive score for a chemistry posting, got %d", s1)
	}
}

func TestJuniorChemistIncluded(t *testing.T) {
	e := testEngine()
	score, excluded := e.Score(
		"Ingénieur Chimiste Junior",
		"Poste en chimie analytique, 2 ans d'expérience demandés.",
	)
	if excluded {
		t.Fatal("junior chemist with low experience should not be excluded")
	}
	if !e.Relevant(score) {
		t.Errorf("expected score above threshold, got %d", score)
	}
}

func TestSeniorDeveloperExcluded(t *testing.T) {
	e := testEngine()
	score, excluded := e.Score("Senior Developer", "chimie chimie chimie")
	if !excluded {
		t.Fatal("expected exclusion for senior developer title")
	}
	if score != 0 {
		t.Errorf("excluded candidates must score 0, got %d", score)
	}
}

func TestExclusionPrecedence(t *testing.T) {
	e := testEngine()
	// Plenty of inclusion keywords, but an exclusion term in the title wins.
	score, excluded := e.Score(
		"Développeur Chimie Laboratoire",
		"chimie analytique chromatographie spectroscopie contrôle qualité",
	)
	if !excluded || score != 0 {
		t.Errorf("exclusion term must win regardless of keyword hits: score=%d excluded=%v", score, excluded)
	}
}

func TestCarveOutAllowsQualifiedExpert(t *testing.T) {
	e := testEngine()
	if e.ShouldExclude("Expert Traitement des Eaux") {
		t.Error("carve-out qualifier should suspend the expert exclusion")
	}
	if !e.ShouldExclude("Expert Comptabilité") {
		t.Error("unqualified expert title should stay excluded")
	}
}

func TestExclusionMatchesWholeWordsOnly(t *testing.T) {
	e := testEngine()
	// "seniority" contains "senior" as a substring but not as a word.
	if e.ShouldExclude("Chimiste - seniority irrelevant") {
		t.Error("substring hit must not trigger whole-word exclusion")
	}
	if !e.ShouldExclude("Chimiste Senior") {
		t.Error("whole-word hit should trigger exclusion")
	}
}

func TestTitleWeightsDoubleDescriptionWeights(t *testing.T) {
	e := testEngine()
	titleHit, _ := e.Score("chimiste", "")
	descHit, _ := e.Score("", "chimiste")
	if titleHit != 2*descHit {
		t.Errorf("title hit should weigh double: title=%d desc=%d", titleHit, descHit)
	}
}

func TestExperienceCeiling(t *testing.T) {
	e := testEngine()
	cases := []struct {
		name    string
		desc    string
		exceeds bool
	}{
		{"low french", "2 ans d'expérience exigés", false},
		{"high french", "8 ans d'expérience minimum", true},
		{"high english", "10 years of experience required", true},
		{"experience-first phrasing", "expérience de 7 ans en laboratoire", true},
		{"range uses lower bound", "entre 3 et 7 ans d'expérience", false},
		{"no figure fails open", "expérience significative souhaitée", false},
		{"unrelated number fails open", "équipe de 12 personnes", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := e.ExperienceExceedsCeiling(c.desc); got != c.exceeds {
				t.Errorf("ExperienceExceedsCeiling(%q) = %v, want %v", c.desc, got, c.exceeds)
			}
		})
	}
}

func TestCountWholeWord(t *testing.T) {
	cases := []struct {
		text, term string
		want       int
	}{
		{"chimie et chimie", "chimie", 2},
		{"biochimie", "chimie", 0},
		{"chimie analytique au laboratoire", "chimie analytique", 1},
		{"chargé qhse confirmé", "chargé qhse", 1},
		{"qhse/hse", "hse", 1},
		{"échimie", "chimie", 0},
		{"chimieé", "chimie", 0},
		{"", "chimie", 0},
	}
	for _, c := range cases {
		if got := countWholeWord(c.text, c.term); got != c.want {
			t.Errorf("countWholeWord(%q, %q) = %d, want %d", c.text, c.term, got, c.want)
		}
	}
}

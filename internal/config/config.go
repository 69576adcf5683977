package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the ChemistryJobs daemon.
type Config struct {
	DatabasePath string
	Sources      []SourceConfig
	Keywords     Keywords
	Scoring      ScoringConfig
	Exclusions   ExclusionConfig
	Scheduler    SchedulerConfig
	Automation   AutomationConfig
	Profile      Profile
}

// SourceConfig enables or disables one listing site.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// Keywords holds the four weighted keyword categories consumed by both the
// scoring engine and the acquisition pipeline.
type Keywords struct {
	Core            []string `yaml:"core"`
	Specializations []string `yaml:"specializations"`
	JobTitles       []string `yaml:"job_titles"`
	Domains         []string `yaml:"domains"`
}

// All returns the union of every category, deduplicated, in category order.
func (k Keywords) All() []string {
	seen := make(map[string]struct{})
	var all []string
	for _, cat := range [][]string{k.Core, k.Specializations, k.JobTitles, k.Domains} {
		for _, kw := range cat {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			all = append(all, kw)
		}
	}
	return all
}

// ScoringConfig holds the tunable category weights and gates. The original
// weights vary across deployments, so nothing here is hardcoded in the engine.
type ScoringConfig struct {
	CoreWeight           int `yaml:"core_weight"`
	SpecializationWeight int `yaml:"specialization_weight"`
	JobTitleWeight       int `yaml:"job_title_weight"`
	DomainWeight         int `yaml:"domain_weight"`
	TitleMultiplier      int `yaml:"title_multiplier"`
	MinScore             int `yaml:"min_score"`
	MaxExperienceYears   int `yaml:"max_experience_years"`
}

// ExclusionCarveOut suspends an exclusion term when a qualifier co-occurs in
// the title, e.g. "expert" is fine within "expert traitement des eaux".
type ExclusionCarveOut struct {
	Term       string   `yaml:"term"`
	Qualifiers []string `yaml:"qualifiers"`
}

// ExclusionConfig is the disqualifying vocabulary for job titles.
type ExclusionConfig struct {
	Terms     []string            `yaml:"terms"`
	CarveOuts []ExclusionCarveOut `yaml:"carveouts"`
}

// SchedulerConfig controls the background cycle cadence.
type SchedulerConfig struct {
	AcquisitionInterval time.Duration // between acquisition passes
	ApplicationInterval time.Duration // between automation runs
	CaughtUpInterval    time.Duration // after a run that succeeded or found nothing to do
	ErrorBackoff        time.Duration // after an unhandled cycle error
}

// AutomationConfig controls the browser-driven application automator.
type AutomationConfig struct {
	Headless            bool
	ChromePath          string
	NavigationTimeout   time.Duration // per navigation / element wait
	VerificationTimeout time.Duration // upper bound on the CAPTCHA wait
}

// Profile is the applicant data site adapters fill into application forms.
// It is read-only input: nothing here is ever persisted by the core.
type Profile struct {
	FirstName         string   `yaml:"first_name"`
	LastName          string   `yaml:"last_name"`
	CIN               string   `yaml:"cin"`
	Phone             string   `yaml:"phone"`
	Email             string   `yaml:"email"`
	CVPath            string   `yaml:"cv_path"`
	Diploma           string   `yaml:"diploma"`
	ExperienceBracket string   `yaml:"experience_bracket"`
	Languages         []string `yaml:"languages"`
	Region            string   `yaml:"region"`

	Credentials Credentials `yaml:"credentials"`
}

// Credentials holds site logins for adapters that require authentication.
type Credentials struct {
	KeejobEmail    string `yaml:"keejob_email"`
	KeejobPassword string `yaml:"keejob_password"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	DatabasePath string          `yaml:"database_path"`
	Sources      []SourceConfig  `yaml:"sources"`
	Keywords     Keywords        `yaml:"keywords"`
	Scoring      ScoringConfig   `yaml:"scoring"`
	Exclusions   ExclusionConfig `yaml:"exclusions"`
	Scheduler    rawScheduler    `yaml:"scheduler"`
	Automation   rawAutomation   `yaml:"automation"`
	Profile      Profile         `yaml:"profile"`
}

type rawScheduler struct {
	AcquisitionInterval string `yaml:"acquisition_interval"`
	ApplicationInterval string `yaml:"application_interval"`
	CaughtUpInterval    string `yaml:"caught_up_interval"`
	ErrorBackoff        string `yaml:"error_backoff"`
}

type rawAutomation struct {
	Headless            bool   `yaml:"headless"`
	ChromePath          string `yaml:"chrome_path"`
	NavigationTimeout   string `yaml:"navigation_timeout"`
	VerificationTimeout string `yaml:"verification_timeout"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (credentials, CV path).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		DatabasePath: raw.DatabasePath,
		Sources:      raw.Sources,
		Keywords:     raw.Keywords,
		Scoring:      raw.Scoring,
		Exclusions:   raw.Exclusions,
		Profile:      raw.Profile,
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "jobs.db"
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = []SourceConfig{
			{Name: "optioncarriere", Enabled: true},
			{Name: "keejob", Enabled: true},
			{Name: "tunisietravail", Enabled: true},
		}
	}
	if cfg.Keywords.isEmpty() {
		cfg.Keywords = DefaultKeywords()
	}
	applyScoringDefaults(&cfg.Scoring)
	if len(cfg.Exclusions.Terms) == 0 {
		cfg.Exclusions = DefaultExclusions()
	}

	cfg.Scheduler, err = parseScheduler(raw.Scheduler)
	if err != nil {
		return nil, err
	}
	cfg.Automation, err = parseAutomation(raw.Automation)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (k Keywords) isEmpty() bool {
	return len(k.Core)+len(k.Specializations)+len(k.JobTitles)+len(k.Domains) == 0
}

func applyScoringDefaults(s *ScoringConfig) {
	if s.CoreWeight == 0 {
		s.CoreWeight = 3
	}
	if s.SpecializationWeight == 0 {
		s.SpecializationWeight = 5
	}
	if s.JobTitleWeight == 0 {
		s.JobTitleWeight = 4
	}
	if s.DomainWeight == 0 {
		s.DomainWeight = 2
	}
	if s.TitleMultiplier == 0 {
		s.TitleMultiplier = 2
	}
	if s.MinScore == 0 {
		s.MinScore = 5
	}
	if s.MaxExperienceYears == 0 {
		s.MaxExperienceYears = 5
	}
}

func parseScheduler(raw rawScheduler) (SchedulerConfig, error) {
	cfg := SchedulerConfig{
		AcquisitionInterval: 24 * time.Hour,
		ApplicationInterval: 1 * time.Hour,
		CaughtUpInterval:    4 * time.Hour,
		ErrorBackoff:        5 * time.Minute,
	}
	var err error
	if raw.AcquisitionInterval != "" {
		if cfg.AcquisitionInterval, err = time.ParseDuration(raw.AcquisitionInterval); err != nil {
			return cfg, fmt.Errorf("parse scheduler.acquisition_interval %q: %w", raw.AcquisitionInterval, err)
		}
	}
	if raw.ApplicationInterval != "" {
		if cfg.ApplicationInterval, err = time.ParseDuration(raw.ApplicationInterval); err != nil {
			return cfg, fmt.Errorf("parse scheduler.application_interval %q: %w", raw.ApplicationInterval, err)
		}
	}
	if raw.CaughtUpInterval != "" {
		if cfg.CaughtUpInterval, err = time.ParseDuration(raw.CaughtUpInterval); err != nil {
			return cfg, fmt.Errorf("parse scheduler.caught_up_interval %q: %w", raw.CaughtUpInterval, err)
		}
	}
	if raw.ErrorBackoff != "" {
		if cfg.ErrorBackoff, err = time.ParseDuration(raw.ErrorBackoff); err != nil {
			return cfg, fmt.Errorf("parse scheduler.error_backoff %q: %w", raw.ErrorBackoff, err)
		}
	}
	return cfg, nil
}

func parseAutomation(raw rawAutomation) (AutomationConfig, error) {
	cfg := AutomationConfig{
		Headless:            raw.Headless,
		ChromePath:          raw.ChromePath,
		NavigationTimeout:   30 * time.Second,
		VerificationTimeout: 120 * time.Second,
	}
	var err error
	if raw.NavigationTimeout != "" {
		if cfg.NavigationTimeout, err = time.ParseDuration(raw.NavigationTimeout); err != nil {
			return cfg, fmt.Errorf("parse automation.navigation_timeout %q: %w", raw.NavigationTimeout, err)
		}
	}
	if raw.VerificationTimeout != "" {
		if cfg.VerificationTimeout, err = time.ParseDuration(raw.VerificationTimeout); err != nil {
			return cfg, fmt.Errorf("parse automation.verification_timeout %q: %w", raw.VerificationTimeout, err)
		}
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	enabled := 0
	for _, s := range cfg.Sources {
		switch s.Name {
		case "optioncarriere", "keejob", "tunisietravail":
		default:
			return fmt.Errorf("unknown source %q", s.Name)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Scheduler.AcquisitionInterval <= 0 {
		return fmt.Errorf("scheduler.acquisition_interval must be positive, got %v", cfg.Scheduler.AcquisitionInterval)
	}
	if cfg.Scheduler.ApplicationInterval <= 0 {
		return fmt.Errorf("scheduler.application_interval must be positive, got %v", cfg.Scheduler.ApplicationInterval)
	}
	if cfg.Scheduler.CaughtUpInterval < cfg.Scheduler.ApplicationInterval {
		return fmt.Errorf("scheduler.caught_up_interval (%v) must not be shorter than application_interval (%v)",
			cfg.Scheduler.CaughtUpInterval, cfg.Scheduler.ApplicationInterval)
	}

	if cfg.Scoring.MinScore < 0 {
		return fmt.Errorf("scoring.min_score must be non-negative, got %d", cfg.Scoring.MinScore)
	}
	if cfg.Scoring.MaxExperienceYears <= 0 {
		return fmt.Errorf("scoring.max_experience_years must be positive, got %d", cfg.Scoring.MaxExperienceYears)
	}

	for _, co := range cfg.Exclusions.CarveOuts {
		if co.Term == "" || len(co.Qualifiers) == 0 {
			return fmt.Errorf("exclusions.carveouts entries need both a term and at least one qualifier")
		}
	}

	return nil
}

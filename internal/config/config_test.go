package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
profile:
  first_name: Amine
  last_name: Balti
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DatabasePath != "jobs.db" {
		t.Errorf("expected default database path jobs.db, got %q", cfg.DatabasePath)
	}
	if len(cfg.Sources) != 3 {
		t.Errorf("expected 3 default sources, got %d", len(cfg.Sources))
	}
	if len(cfg.Keywords.Core) == 0 || len(cfg.Keywords.Domains) == 0 {
		t.Error("expected default keywords to be applied")
	}
	if cfg.Scoring.MinScore != 5 {
		t.Errorf("expected default min_score 5, got %d", cfg.Scoring.MinScore)
	}
	if cfg.Scoring.SpecializationWeight != 5 {
		t.Errorf("expected default specialization_weight 5, got %d", cfg.Scoring.SpecializationWeight)
	}
	if cfg.Scheduler.AcquisitionInterval != 24*time.Hour {
		t.Errorf("expected default acquisition interval 24h, got %v", cfg.Scheduler.AcquisitionInterval)
	}
	if cfg.Scheduler.ErrorBackoff != 5*time.Minute {
		t.Errorf("expected default error backoff 5m, got %v", cfg.Scheduler.ErrorBackoff)
	}
	if cfg.Automation.VerificationTimeout != 120*time.Second {
		t.Errorf("expected default verification timeout 120s, got %v", cfg.Automation.VerificationTimeout)
	}
	if len(cfg.Exclusions.CarveOuts) == 0 {
		t.Error("expected default exclusion carve-outs")
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  acquisition_interval: 12h
  application_interval: 30m
  caught_up_interval: 2h
  error_backoff: 1m
automation:
  verification_timeout: 90s
  navigation_timeout: 15s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.AcquisitionInterval != 12*time.Hour {
		t.Errorf("acquisition_interval = %v, want 12h", cfg.Scheduler.AcquisitionInterval)
	}
	if cfg.Scheduler.ApplicationInterval != 30*time.Minute {
		t.Errorf("application_interval = %v, want 30m", cfg.Scheduler.ApplicationInterval)
	}
	if cfg.Automation.VerificationTimeout != 90*time.Second {
		t.Errorf("verification_timeout = %v, want 90s", cfg.Automation.VerificationTimeout)
	}
	if cfg.Automation.NavigationTimeout != 15*time.Second {
		t.Errorf("navigation_timeout = %v, want 15s", cfg.Automation.NavigationTimeout)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  application_interval: soon
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unparseable application_interval")
	}
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: monster
    enabled: true
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown source name")
	}
}

func TestLoadRejectsAllSourcesDisabled(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: keejob
    enabled: false
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error when no source is enabled")
	}
}

func TestLoadRejectsCaughtUpShorterThanApplication(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  application_interval: 2h
  caught_up_interval: 1h
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error when caught_up_interval < application_interval")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("CHEMJOBS_TEST_EMAIL", "amine@example.tn")
	path := writeConfig(t, `
profile:
  email: ${CHEMJOBS_TEST_EMAIL}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile.Email != "amine@example.tn" {
		t.Errorf("expected env-expanded email, got %q", cfg.Profile.Email)
	}
}

func TestKeywordsAllDeduplicates(t *testing.T) {
	k := Keywords{
		Core:      []string{"chimie", "chimiste"},
		JobTitles: []string{"chimiste", "analyste chimique"},
	}
	all := k.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 unique keywords, got %d: %v", len(all), all)
	}
}

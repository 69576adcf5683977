package automator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aminebalti55/ChemistryJobs/internal/config"
	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

// jobPause is the politeness gap between consecutive job applications.
const jobPause = 2 * time.Second

// SiteCount aggregates attempt outcomes for one site within a run.
type SiteCount struct {
	Attempts  int
	Successes int
}

// RunStats describes one automation run for the surrounding API layer.
type RunStats struct {
	RunID     string
	StartedAt time.Time
	Jobs      int // eligible jobs at run start
	Attempts  int
	Successes int
	BySite    map[string]SiteCount
}

// Automator walks every eligible job through its application state machine.
// Eligibility is decided entirely by the store's query; the automator never
// re-checks attempt budgets itself.
type Automator struct {
	store    model.AttemptStore
	registry *Registry
	profile  config.Profile
	cfg      config.AutomationConfig
	logger   *slog.Logger

	// newSession is swapped out in tests to avoid launching a browser.
	newSession func(ctx context.Context) (*Session, error)
}

// New creates an automator wired with all its dependencies.
func New(store model.AttemptStore, registry *Registry, profile config.Profile, cfg config.AutomationConfig, logger *slog.Logger) *Automator {
	a := &Automator{
		store:    store,
		registry: registry,
		profile:  profile,
		cfg:      cfg,
		logger:   logger,
	}
	a.newSession = func(ctx context.Context) (*Session, error) {
		return NewSession(ctx, cfg)
	}
	return a
}

// Run executes one automation pass: it opens a single browser session, then
// applies to each eligible job strictly sequentially, in the order the store
// returns them. Cancelling ctx tears the session down even mid-job; the
// in-flight job's attempt is already counted by then.
func (a *Automator) Run(ctx context.Context) (RunStats, error) {
	stats := RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		BySite:    make(map[string]SiteCount),
	}

	jobs, err := a.store.UnappliedJobs()
	if err != nil {
		return stats, fmt.Errorf("querying unapplied jobs: %w", err)
	}
	stats.Jobs = len(jobs)
	if len(jobs) == 0 {
		a.logger.Info("no unapplied jobs, skipping automation run", "run_id", stats.RunID)
		return stats, nil
	}

	session, err := a.newSession(ctx)
	if err != nil {
		return stats, fmt.Errorf("opening browser session: %w", err)
	}
	defer session.Close()

	a.logger.Info("automation run started", "run_id", stats.RunID, "jobs", len(jobs))

	for i, job := range jobs {
		if ctx.Err() != nil {
			a.logger.Info("automation run cancelled", "run_id", stats.RunID, "completed", i)
			return stats, ctx.Err()
		}

		site, success := a.applyOne(ctx, session, job)
		count := stats.BySite[site]
		count.Attempts++
		stats.Attempts++
		if success {
			count.Successes++
			stats.Successes++
		}
		stats.BySite[site] = count

		if i < len(jobs)-1 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(jobPause):
			}
		}
	}

	a.logger.Info("automation run complete",
		"run_id", stats.RunID,
		"attempts", stats.Attempts,
		"successes", stats.Successes,
	)
	return stats, nil
}

// applyOne consumes exactly one unit of the job's attempt budget, whatever
// the outcome. The counter is incremented before any blocking step so a
// forced stop never under-counts.
func (a *Automator) applyOne(ctx context.Context, s *Session, job model.JobRecord) (site string, success bool) {
	adapter, lookupErr := a.registry.Lookup(job.Link)
	site = "unknown"
	if lookupErr == nil {
		site = adapter.Name()
	}

	attempts, err := a.store.BeginAttempt(job.ID)
	if err != nil {
		// The store's filter and this guard can disagree only when the row
		// changed underneath us; skip without recording anything.
		a.logger.Warn("attempt refused by store", "job", job.Link, "error", err)
		return site, false
	}

	var errMsg string
	if lookupErr != nil {
		errMsg = fmt.Sprintf("unknown site domain: %v", lookupErr)
		success = false
	} else {
		site, success, errMsg = a.drive(ctx, s, adapter, job)
	}

	if err := a.store.FinishAttempt(job.ID, success, site, errMsg); err != nil {
		a.logger.Error("recording attempt outcome failed", "job", job.Link, "error", err)
	}

	a.logger.Info("application attempt finished",
		"job", job.Link,
		"site", site,
		"attempt", attempts,
		"success", success,
		"error", errMsg,
	)
	return site, success
}

// drive walks one job through the adapter state machine. Every failure is
// converted into a short error message for the attempt history; nothing here
// aborts the run.
func (a *Automator) drive(ctx context.Context, s *Session, adapter SiteAdapter, job model.JobRecord) (site string, success bool, errMsg string) {
	site = adapter.Name()

	appURL, err := adapter.NavigateToApplication(ctx, s, job.Link)
	if err != nil {
		return site, false, fmt.Sprintf("navigation failed: %v", err)
	}

	// Cross-site handoff: the aggregator may discover the real application
	// form on another adapter's domain. The session (and its cookies) is
	// reused, and the attempt stays counted once, against this job.
	if target, err := a.registry.Lookup(appURL); err == nil {
		if target.Name() != adapter.Name() {
			a.logger.Info("cross-site handoff", "from", adapter.Name(), "to", target.Name(), "url", appURL)
			adapter = target
			site = target.Name()
			if _, err := adapter.NavigateToApplication(ctx, s, appURL); err != nil {
				return site, false, fmt.Sprintf("cross-site handoff failed: %v", err)
			}
		}
	} else if !sameHost(appURL, job.Link) {
		return site, false, fmt.Sprintf("cross-site handoff failed: %v", err)
	}

	if err := adapter.AuthenticateIfRequired(ctx, s); err != nil {
		return site, false, fmt.Sprintf("authentication failed: %v", err)
	}

	if err := adapter.FillForm(ctx, s, a.profile); err != nil {
		return site, false, fmt.Sprintf("form fill failed: %v", err)
	}

	if err := adapter.AwaitHumanVerification(ctx, s, a.cfg.VerificationTimeout); err != nil {
		if errors.Is(err, ErrVerificationTimeout) {
			return site, false, fmt.Sprintf("verification timeout after %s", a.cfg.VerificationTimeout)
		}
		return site, false, fmt.Sprintf("verification failed: %v", err)
	}

	if err := adapter.Submit(ctx, s); err != nil {
		return site, false, fmt.Sprintf("submit failed: %v", err)
	}

	outcome, err := adapter.DetectOutcome(ctx, s)
	if err != nil {
		return site, false, fmt.Sprintf("outcome detection failed: %v", err)
	}
	switch outcome {
	case OutcomeApplied:
		return site, true, ""
	case OutcomeFailed:
		return site, false, "site reported application failure"
	default:
		// Unknown is failure, conservatively.
		return site, false, "application outcome could not be confirmed"
	}
}

func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Hostname(), ub.Hostname())
}

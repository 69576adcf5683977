// Package scheduler owns the daemon's two loops: periodic acquisition passes
// and the browser automation cycle. Exactly one automation run is in flight
// at any time; overlapping triggers are dropped, not queued.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aminebalti55/ChemistryJobs/internal/acquire"
	"github.com/aminebalti55/ChemistryJobs/internal/automator"
	"github.com/aminebalti55/ChemistryJobs/internal/config"
)

// Acquirer runs one discovery pass over all sources and keywords.
type Acquirer interface {
	Run(ctx context.Context) (acquire.Result, error)
}

// Applier runs one automation pass over all eligible jobs.
type Applier interface {
	Run(ctx context.Context) (automator.RunStats, error)
}

// Status is a point-in-time snapshot of the scheduler for the CLI.
type Status struct {
	Running         bool
	ApplyInFlight   bool
	LastAcquisition time.Time
	LastAcquired    int
	LastApplyRun    *automator.RunStats
	NextApplyAfter  time.Time
}

// Scheduler drives acquisition on a fixed cron interval and automation on an
// adaptive one: the automation loop slows down once a pass finds nothing left
// to apply to, and backs off after errors.
type Scheduler struct {
	acquirer Acquirer
	applier  Applier
	cfg      config.SchedulerConfig
	logger   *slog.Logger

	cron *cron.Cron

	mu            sync.Mutex
	applyInFlight bool
	status        Status

	stop chan struct{}
	done sync.WaitGroup
}

func New(acquirer Acquirer, applier Applier, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		acquirer: acquirer,
		applier:  applier,
		cfg:      cfg,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Run starts both loops and blocks until ctx is cancelled. One acquisition
// pass runs immediately so a fresh install has jobs before the first
// automation cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"acquisition_interval", s.cfg.AcquisitionInterval.String(),
		"application_interval", s.cfg.ApplicationInterval.String(),
	)

	s.mu.Lock()
	s.status.Running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.status.Running = false
		s.mu.Unlock()
	}()

	s.acquireOnce(ctx)

	s.cron = cron.New()
	_, err := s.cron.AddFunc("@every "+s.cfg.AcquisitionInterval.String(), func() {
		s.acquireOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()

	s.done.Add(1)
	go s.applyLoop(ctx)

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")

	cronCtx := s.cron.Stop()
	close(s.stop)
	s.done.Wait()
	<-cronCtx.Done()
	return nil
}

// acquireOnce runs one discovery pass. Failures are logged, never fatal; the
// next tick retries.
func (s *Scheduler) acquireOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	res, err := s.acquirer.Run(ctx)
	if err != nil {
		s.logger.Error("acquisition pass failed", "error", err)
		return
	}
	if len(res.FailedKeywords) > 0 {
		s.logger.Warn("keywords failed on every source", "keywords", res.FailedKeywords)
	}

	s.mu.Lock()
	s.status.LastAcquisition = time.Now()
	s.status.LastAcquired = res.Added
	s.mu.Unlock()
}

// applyLoop runs automation passes with an adaptive pause:
// ApplicationInterval while attempts keep failing, CaughtUpInterval once a
// pass succeeded or found no eligible jobs, ErrorBackoff after a pass that
// errored out.
func (s *Scheduler) applyLoop(ctx context.Context) {
	defer s.done.Done()

	for {
		pause := s.applyOnce(ctx)

		s.mu.Lock()
		s.status.NextApplyAfter = time.Now().Add(pause)
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-time.After(pause):
		}
	}
}

// applyOnce triggers one automation run and returns the pause before the
// next. A run already in flight (e.g. triggered manually through the CLI)
// skips this cycle entirely.
func (s *Scheduler) applyOnce(ctx context.Context) time.Duration {
	if ctx.Err() != nil {
		return s.cfg.ApplicationInterval
	}

	stats, ran, err := s.TriggerApply(ctx)
	if !ran {
		s.logger.Info("automation run already in flight, skipping cycle")
		return s.cfg.ApplicationInterval
	}
	if err != nil {
		s.logger.Error("automation run failed", "error", err)
		return s.cfg.ErrorBackoff
	}

	// A pass that found nothing to do, or that got applications through,
	// means the queue is (close to) drained; slow down until acquisition
	// refills it.
	if stats.Jobs == 0 || stats.Successes > 0 {
		return s.cfg.CaughtUpInterval
	}
	return s.cfg.ApplicationInterval
}

// TriggerApply runs one automation pass if none is in flight. ran reports
// whether a run actually happened; only one caller at a time ever holds the
// browser.
func (s *Scheduler) TriggerApply(ctx context.Context) (stats automator.RunStats, ran bool, err error) {
	s.mu.Lock()
	if s.applyInFlight {
		s.mu.Unlock()
		return automator.RunStats{}, false, nil
	}
	s.applyInFlight = true
	s.status.ApplyInFlight = true
	s.mu.Unlock()

	stats, err = s.applier.Run(ctx)

	s.mu.Lock()
	s.applyInFlight = false
	s.status.ApplyInFlight = false
	s.status.LastApplyRun = &stats
	s.mu.Unlock()

	return stats, true, err
}

// Status returns a snapshot of the scheduler's state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

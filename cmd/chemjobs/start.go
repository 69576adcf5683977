package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aminebalti55/ChemistryJobs/internal/acquire"
	"github.com/aminebalti55/ChemistryJobs/internal/automator"
	"github.com/aminebalti55/ChemistryJobs/internal/scheduler"
	"github.com/aminebalti55/ChemistryJobs/internal/score"
	"github.com/aminebalti55/ChemistryJobs/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the discovery and application daemon",
	Long:  "Start both loops: periodic acquisition passes and the browser application cycle. Blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", len(cfg.Sources),
		"keywords", len(cfg.Keywords.All()),
		"acquisition_interval", cfg.Scheduler.AcquisitionInterval.String(),
		"application_interval", cfg.Scheduler.ApplicationInterval.String(),
	)

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	sources := buildSources(cfg, httpClient, logger)
	if len(sources) == 0 {
		logger.Error("no sources to poll")
		os.Exit(1)
	}

	engine := score.NewEngine(cfg.Keywords, cfg.Scoring, cfg.Exclusions)
	pipeline := acquire.NewPipeline(sources, sqlStore, engine, cfg.Keywords.All(), logger)

	auto := automator.New(sqlStore, buildRegistry(cfg), cfg.Profile, cfg.Automation, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(pipeline, auto, cfg.Scheduler, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}

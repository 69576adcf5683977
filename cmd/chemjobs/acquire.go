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
	"github.com/aminebalti55/ChemistryJobs/internal/model"
	"github.com/aminebalti55/ChemistryJobs/internal/score"
	"github.com/aminebalti55/ChemistryJobs/internal/store"
)

var acquireDryRun bool

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Run one discovery pass and exit",
	Long:  "Query every enabled source with the full keyword vocabulary, score the results and persist the relevant ones.",
	RunE:  runAcquire,
}

func init() {
	acquireCmd.Flags().BoolVar(&acquireDryRun, "dry-run", false, "score and log candidates without persisting anything")
	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var candidateStore model.CandidateStore
	if acquireDryRun {
		logger.Info("dry-run mode enabled, nothing will be persisted")
		candidateStore = store.NewNopStore()
	} else {
		sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		candidateStore = sqlStore
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	sources := buildSources(cfg, httpClient, logger)
	if len(sources) == 0 {
		logger.Error("no sources to poll")
		os.Exit(1)
	}

	engine := score.NewEngine(cfg.Keywords, cfg.Scoring, cfg.Exclusions)
	pipeline := acquire.NewPipeline(sources, candidateStore, engine, cfg.Keywords.All(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Run(ctx)
	if err != nil {
		logger.Error("acquisition pass failed", "error", err)
		os.Exit(1)
	}

	logger.Info("acquisition pass complete",
		"added", res.Added,
		"failed_keywords", len(res.FailedKeywords),
	)
	return nil
}

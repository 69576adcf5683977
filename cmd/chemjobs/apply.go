package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aminebalti55/ChemistryJobs/internal/automator"
	"github.com/aminebalti55/ChemistryJobs/internal/store"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Run one application pass and exit",
	Long:  "Open a browser and apply to every eligible job in the database. CAPTCHAs pause the run for manual solving, bounded by the configured verification timeout.",
	RunE:  runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	auto := automator.New(sqlStore, buildRegistry(cfg), cfg.Profile, cfg.Automation, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := auto.Run(ctx)
	if err != nil {
		logger.Error("application pass failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("run %s: %d eligible, %d attempted, %d applied\n",
		stats.RunID, stats.Jobs, stats.Attempts, stats.Successes)
	for site, c := range stats.BySite {
		fmt.Printf("  %-16s %d attempts, %d applied\n", site, c.Attempts, c.Successes)
	}
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/aminebalti55/ChemistryJobs/internal/review"
	"github.com/aminebalti55/ChemistryJobs/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse the job database interactively",
	Long:  "Open a split-pane terminal browser over discovered jobs. Opening a posting in the browser marks it as seen.",
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer sqlStore.Close()

	return review.Run(sqlStore)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Print the configured search vocabulary by category",
	RunE:  runKeywords,
}

func init() {
	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	categories := []struct {
		name   string
		terms  []string
		weight int
	}{
		{"core", cfg.Keywords.Core, cfg.Scoring.CoreWeight},
		{"specializations", cfg.Keywords.Specializations, cfg.Scoring.SpecializationWeight},
		{"job_titles", cfg.Keywords.JobTitles, cfg.Scoring.JobTitleWeight},
		{"domains", cfg.Keywords.Domains, cfg.Scoring.DomainWeight},
	}

	for _, cat := range categories {
		fmt.Printf("%s (weight %d):\n", cat.name, cat.weight)
		for _, term := range cat.terms {
			fmt.Printf("  %s\n", term)
		}
	}
	fmt.Printf("\n%d distinct terms, minimum score %d\n", len(cfg.Keywords.All()), cfg.Scoring.MinScore)
	return nil
}

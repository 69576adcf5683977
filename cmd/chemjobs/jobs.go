package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aminebalti55/ChemistryJobs/internal/model"
	"github.com/aminebalti55/ChemistryJobs/internal/store"
)

var (
	jobsKeyword string
	jobsState   string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs in the database",
	RunE:  runJobs,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show application statistics per site",
	RunE:  runStats,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsKeyword, "keyword", "", "substring match against title or description")
	jobsCmd.Flags().StringVar(&jobsState, "state", "", "filter by lifecycle state (discovered, applying, applied, failed, excluded)")
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(statsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	var state model.JobState
	if jobsState != "" {
		state, err = model.ParseJobState(jobsState)
		if err != nil {
			return err
		}
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer sqlStore.Close()

	jobs, err := sqlStore.Jobs(store.JobQuery{Keyword: jobsKeyword, State: state})
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("no jobs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tPUBLISHED\tSTATE\tATTEMPTS\tLINK")
	for _, j := range jobs {
		published := "n/a"
		if !j.PublishDate.IsZero() {
			published = j.PublishDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			j.ID, j.Title, j.Location, published, j.State, j.ApplicationAttempts, j.Link)
	}
	return w.Flush()
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer sqlStore.Close()

	stats, err := sqlStore.StatsBySite()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("no application attempts recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SITE\tATTEMPTS\tAPPLIED")
	for site, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\n", site, s.Attempts, s.Successes)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if last, ok, err := sqlStore.LastAcquisition(); err == nil && ok {
		fmt.Printf("\nlast acquisition: %s\n", last.Format("2006-01-02 15:04"))
	}
	return nil
}

package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aminebalti55/ChemistryJobs/internal/automator"
	"github.com/aminebalti55/ChemistryJobs/internal/config"
	"github.com/aminebalti55/ChemistryJobs/internal/model"
	"github.com/aminebalti55/ChemistryJobs/internal/ratelimit"
	"github.com/aminebalti55/ChemistryJobs/internal/retry"
	"github.com/aminebalti55/ChemistryJobs/internal/source"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "chemjobs",
	Short: "Chemistry job radar for the Tunisian market",
	Long:  "Chemjobs discovers chemistry postings on Tunisian job boards, scores them for relevance and applies to the good ones through a browser.",
	// Default to `start` so that invoking the binary directly runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: CHEMJOBS_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > CHEMJOBS_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("CHEMJOBS_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func createFetcher(name string, httpClient *http.Client, logger *slog.Logger) (model.SourceFetcher, bool) {
	switch name {
	case "optioncarriere":
		return source.NewOptionCarriereFetcher(httpClient), true
	case "keejob":
		return source.NewKeejobFetcher(httpClient), true
	case "tunisietravail":
		return source.NewTunisieTravailFetcher(httpClient), true
	default:
		logger.Warn("unsupported source, skipping", "source", name)
		return nil, false
	}
}

// buildSources turns the enabled source configs into decorated fetchers:
// retry with backoff, then a shared per-site rate limit.
func buildSources(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceFetcher {
	limiter := ratelimit.NewSiteRateLimiter(2 * time.Second)

	var sources []model.SourceFetcher
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		fetcher, ok := createFetcher(sc.Name, httpClient, logger)
		if !ok {
			continue
		}
		fetcher = retry.NewRetryFetcher(fetcher, 2, 5*time.Second, logger)
		fetcher = ratelimit.NewRateLimitedFetcher(fetcher, limiter)
		sources = append(sources, fetcher)
		logger.Info("registered source", "name", sc.Name)
	}
	return sources
}

// buildRegistry wires the site adapters the automator dispatches to.
func buildRegistry(cfg *config.Config) *automator.Registry {
	registry := automator.NewRegistry()
	registry.Register("tunisietravail.net", automator.NewTunisieTravailAdapter())
	registry.Register("keejob.com", automator.NewKeejobAdapter(cfg.Profile.Credentials))
	return registry
}

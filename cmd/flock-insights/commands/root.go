package commands

import (
	"fmt"
	"time"

	"flock-insights/internal/churchdb"
	"flock-insights/internal/config"
	"flock-insights/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	asOfArg string

	cfg   *config.AppConfig
	store churchdb.Store
)

var rootCmd = &cobra.Command{
	Use:   "flock-insights",
	Short: "Attendance and enrollment analytics for congregation records",
	Long: `Reads an existing congregation-management database and produces the weekly
attendance report, ratio classifications, communication dashboards, and
notification hygiene audits. It never writes congregation records.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		pg, err := churchdb.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		store = pg

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("flock-insights starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closer, ok := store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close database")
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// asOf resolves the --as-of flag, defaulting to today. Reports anchor on the
// trailing Sunday internally, so any weekday works.
func asOf() (time.Time, error) {
	if asOfArg == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", asOfArg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of date %q (want YYYY-MM-DD): %w", asOfArg, err)
	}
	return t, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&asOfArg, "as-of", "", "report as-of date (YYYY-MM-DD, default today)")
}

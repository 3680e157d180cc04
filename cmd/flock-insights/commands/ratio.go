package commands

import (
	"encoding/json"
	"os"

	"flock-insights/internal/calendar"
	"flock-insights/internal/hierarchy"
	"flock-insights/internal/insights"
	"flock-insights/internal/render"
	"flock-insights/internal/report"

	"github.com/spf13/cobra"
)

var (
	ratioJSON  bool
	ratioWeeks int
)

var ratioCmd = &cobra.Command{
	Use:   "ratio",
	Short: "Classify attendance-to-enrollment ratios across the hierarchy",
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := asOf()
		if err != nil {
			return err
		}
		runCfg := cfg.ReportConfig(at)

		tree, err := hierarchy.NewRepository(store).Load(cmd.Context())
		if err != nil {
			return err
		}

		window := calendar.TrailingWindow(calendar.SundayOfWeek(at), ratioWeeks)
		cls := report.NewClassifier(
			insights.NewAggregator(store),
			insights.NewEnrollmentCounter(store),
			tree, runCfg)
		rep, err := cls.ClassifyTree(cmd.Context(), window)
		if err != nil {
			return err
		}

		if ratioJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		return render.Ratio(os.Stdout, &rep, tree)
	},
}

func init() {
	ratioCmd.Flags().BoolVar(&ratioJSON, "json", false, "emit the report as JSON")
	ratioCmd.Flags().IntVar(&ratioWeeks, "weeks", 4, "trailing window size in weeks")
	rootCmd.AddCommand(ratioCmd)
}

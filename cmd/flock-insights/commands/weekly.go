package commands

import (
	"encoding/json"
	"os"

	"flock-insights/internal/render"
	"flock-insights/internal/report"

	"github.com/spf13/cobra"
)

var (
	weeklyJSON bool
	weeklyHTML bool
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Build the weekly attendance report",
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := asOf()
		if err != nil {
			return err
		}
		runCfg := cfg.ReportConfig(at)

		rep, err := report.NewAssembler(store, runCfg).BuildWeekly(cmd.Context())
		if err != nil {
			return err
		}

		switch {
		case weeklyJSON:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		case weeklyHTML:
			return render.WeeklyEmail(os.Stdout, rep)
		default:
			return render.Weekly(os.Stdout, rep)
		}
	},
}

func init() {
	weeklyCmd.Flags().BoolVar(&weeklyJSON, "json", false, "emit the report as JSON")
	weeklyCmd.Flags().BoolVar(&weeklyHTML, "html", false, "emit the report as an HTML email body")
	rootCmd.AddCommand(weeklyCmd)
}

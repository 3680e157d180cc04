package commands

import (
	"encoding/json"
	"os"

	"flock-insights/internal/calendar"
	"flock-insights/internal/comms"
	"flock-insights/internal/render"

	"github.com/spf13/cobra"
)

var (
	commsJSON bool
	commsDays int
)

var commsCmd = &cobra.Command{
	Use:   "comms",
	Short: "Summarize email and SMS delivery for the trailing period",
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := asOf()
		if err != nil {
			return err
		}
		window := calendar.NewWindow(at.AddDate(0, 0, -(commsDays-1)), at)

		dash, err := comms.NewBuilder(store).Build(cmd.Context(), window)
		if err != nil {
			return err
		}

		if commsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(dash)
		}
		return render.Comms(os.Stdout, dash)
	},
}

func init() {
	commsCmd.Flags().BoolVar(&commsJSON, "json", false, "emit the dashboard as JSON")
	commsCmd.Flags().IntVar(&commsDays, "days", 7, "trailing window size in days")
	rootCmd.AddCommand(commsCmd)
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"flock-insights/internal/audit"
	"flock-insights/internal/render"

	"github.com/spf13/cobra"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Flag people whose notification channels cannot reach them",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := audit.NewAuditor(store).Run(cmd.Context())
		if err != nil {
			return err
		}
		if auditJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		return render.Audit(os.Stdout, rep)
	},
}

var exceptReason string

var auditExceptCmd = &cobra.Command{
	Use:   "except <person-id> [channel]",
	Short: "Suppress findings for a person (optionally one channel only)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		personID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid person id %q: %w", args[0], err)
		}
		channel := ""
		if len(args) == 2 {
			channel = args[1]
		}
		if err := audit.NewAuditor(store).AddException(cmd.Context(), personID, channel, exceptReason); err != nil {
			return err
		}
		fmt.Printf("Exception recorded for person %d\n", personID)
		return nil
	},
}

var auditUnexceptCmd = &cobra.Command{
	Use:   "unexcept <person-id> [channel]",
	Short: "Remove a person's exceptions (all channels unless one is given)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		personID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid person id %q: %w", args[0], err)
		}
		channel := ""
		if len(args) == 2 {
			channel = args[1]
		}
		if err := audit.NewAuditor(store).RemoveException(cmd.Context(), personID, channel); err != nil {
			return err
		}
		fmt.Printf("Exceptions removed for person %d\n", personID)
		return nil
	},
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "emit findings as JSON")
	auditExceptCmd.Flags().StringVar(&exceptReason, "reason", "", "why this gap is acceptable")
	auditCmd.AddCommand(auditExceptCmd, auditUnexceptCmd)
	rootCmd.AddCommand(auditCmd)
}

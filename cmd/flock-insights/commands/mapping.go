package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"flock-insights/internal/churchdb"

	"github.com/spf13/cobra"
)

// mappingDocKey is the slot the department-mapping document lives under.
// The document is opaque to the engine; this command only moves it in and
// out verbatim.
const mappingDocKey = "settings/department-mapping"

var mappingSetFile string

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Show or replace the department-mapping document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if mappingSetFile != "" {
			doc, err := os.ReadFile(mappingSetFile)
			if err != nil {
				return fmt.Errorf("read mapping file: %w", err)
			}
			if !json.Valid(doc) {
				return fmt.Errorf("mapping file %s is not valid JSON", mappingSetFile)
			}
			if err := store.SaveDocument(cmd.Context(), mappingDocKey, doc); err != nil {
				return err
			}
			fmt.Printf("Mapping replaced (%d bytes). Writes are last-write-wins.\n", len(doc))
			return nil
		}

		doc, err := store.LoadDocument(cmd.Context(), mappingDocKey)
		if errors.Is(err, churchdb.ErrNoDocument) {
			fmt.Println("No department mapping stored.")
			return nil
		}
		if err != nil {
			return err
		}
		os.Stdout.Write(doc)
		fmt.Println()
		return nil
	},
}

func init() {
	mappingCmd.Flags().StringVar(&mappingSetFile, "set", "", "replace the mapping with the given JSON file")
	rootCmd.AddCommand(mappingCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"semcluster/internal/adapter/loader"
)

var unitsInput string

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Show the grouped text units for an input",
	Long: `Load a tabular input and print the text units built by grouping rows
on the identifier column, without calling any API.

Examples:
  semcluster units --input data.csv
  semcluster units --input "data/*.csv"`,
	RunE: runUnits,
}

func init() {
	rootCmd.AddCommand(unitsCmd)
	unitsCmd.Flags().StringVarP(&unitsInput, "input", "i", "", "input CSV file or glob (required)")
	unitsCmd.MarkFlagRequired("input")
}

func runUnits(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	ds, err := loader.New(cfg.Input.IDColumn, cfg.Input.TextColumn).Load(unitsInput)
	if err != nil {
		return err
	}

	fmt.Printf("%d rows, %d text units\n\n", len(ds.Records), len(ds.Units))
	for _, unit := range ds.Units {
		text := unit.Text
		if len(text) > 80 {
			text = text[:80] + "..."
		}
		fmt.Printf("  %-20s %s\n", unit.ID, text)
	}

	return nil
}

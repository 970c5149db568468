package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored duos",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	duos, err := db.ListDuos()
	if err != nil {
		return fmt.Errorf("list duos: %w", err)
	}
	if len(duos) == 0 {
		fmt.Fprintln(os.Stdout, "No duos stored yet. Run 'duometrics sync <nameA#tagA> <nameB#tagB>' to add one.")
		return nil
	}
	report.PrintDuoList(os.Stdout, duos)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend <duo>",
	Short: "Print the chronological team-placement trend",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, duo, err := openDuo(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.Matches(duo.ID)
	if err != nil {
		return fmt.Errorf("get matches: %w", err)
	}
	report.PrintDuoHeader(os.Stdout, duo)
	report.PrintTrend(os.Stdout, matches)
	return nil
}

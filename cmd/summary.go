package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/report"
)

var (
	summaryDays int
	summaryJSON bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <duo>",
	Short: "Print KPIs, player rollups, lobby meta and suggestions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryDays, "window-days", 0, "only matches from the last N days (0 = all stored)")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print JSON instead of tables")
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, duo, err := openDuo(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	var matches []model.Match
	if summaryDays > 0 {
		w, err := db.Window(duo.ID, summaryDays, clk.Now())
		if err != nil {
			return err
		}
		matches = w.Matches
	} else if matches, err = db.Matches(duo.ID); err != nil {
		return fmt.Errorf("get matches: %w", err)
	}

	s := aggregator.Summarize(matches)
	if summaryJSON {
		return printJSON(s)
	}
	report.PrintDuoHeader(os.Stdout, duo)
	report.PrintSummary(os.Stdout, duo, s)
	return nil
}

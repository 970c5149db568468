package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/report"
)

var showLimit int

var showCmd = &cobra.Command{
	Use:   "show <duo>",
	Short: "Show a duo's stored matches by duo id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "newest matches to show (0 = all)")
}

func runShow(cmd *cobra.Command, args []string) error {
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
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored for this duo. Run 'duometrics sync' first.")
		return nil
	}
	if showLimit > 0 && len(matches) > showLimit {
		matches = matches[:showLimit]
	}
	report.PrintMatchTable(os.Stdout, matches)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/report"
)

var eventsJSON bool

var eventsCmd = &cobra.Command{
	Use:   "events <duo>",
	Short: "List a duo's event log",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print JSON instead of a table")
}

func runEvents(cmd *cobra.Command, args []string) error {
	db, duo, err := openDuo(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := db.Events(duo.ID)
	if err != nil {
		return fmt.Errorf("get events: %w", err)
	}
	if eventsJSON {
		return printJSON(events)
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "No events logged. Use 'duometrics event' or 'duometrics journal'.")
		return nil
	}
	report.PrintEvents(os.Stdout, events)
	return nil
}

package cmd

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/intel"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/report"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
	"github.com/pable/tft-duo-metrics/internal/storage"
)

var (
	windowDays int
	reportJSON bool
)

var scorecardCmd = &cobra.Command{
	Use:   "scorecard <duo>",
	Short: "Gift, rescue, econ and decision metrics for a window",
	Args:  cobra.ExactArgs(1),
	RunE:  runScorecard,
}

var playbookCmd = &cobra.Command{
	Use:   "playbook <duo>",
	Short: "Openers and standing rules from the duo's best games",
	Long:  "Builds the playbook for a window and stores it as the duo's latest playbook snapshot.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaybook,
}

var highlightsCmd = &cobra.Command{
	Use:   "highlights <duo>",
	Short: "Short recap of the window",
	Args:  cobra.ExactArgs(1),
	RunE:  runHighlights,
}

var intelCmd = &cobra.Command{
	Use:   "intel <duo>",
	Short: "Tilt, fingerprints, win conditions, loss autopsy and coordination",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntel,
}

func init() {
	for _, c := range []*cobra.Command{scorecardCmd, playbookCmd, highlightsCmd, intelCmd} {
		c.Flags().IntVar(&windowDays, "window-days", 30, "look-back window in days (1-365)")
		c.Flags().BoolVar(&reportJSON, "json", false, "print JSON instead of tables")
		rootCmd.AddCommand(c)
	}
}

// windowReport is one duo's window, loaded for a report command.
type windowReport struct {
	db  *storage.DB
	duo model.Duo
	storage.WindowData
}

func loadWindow(prefix string, days int) (*windowReport, error) {
	db, duo, err := openDuo(prefix)
	if err != nil {
		return nil, err
	}
	w, err := db.Window(duo.ID, days, clk.Now())
	if err != nil {
		db.Close()
		return nil, err
	}
	return &windowReport{db: db, duo: duo, WindowData: w}, nil
}

func (w *windowReport) header() {
	report.PrintDuoHeader(os.Stdout, w.duo)
	fmt.Fprintf(os.Stdout, "Window: last %d days  |  Matches: %d  |  Events: %d\n\n", w.Days, len(w.Matches), len(w.Events))
}

func runScorecard(cmd *cobra.Command, args []string) error {
	w, err := loadWindow(args[0], windowDays)
	if err != nil {
		return err
	}
	defer w.db.Close()

	sc := scorecard.BuildScorecard(w.Matches, w.Events, clk.Now())
	if reportJSON {
		return printJSON(sc)
	}
	w.header()
	report.PrintScorecard(os.Stdout, sc)
	return nil
}

func runPlaybook(cmd *cobra.Command, args []string) error {
	w, err := loadWindow(args[0], windowDays)
	if err != nil {
		return err
	}
	defer w.db.Close()

	now := clk.Now()
	pb := scorecard.BuildPlaybook(w.Matches, w.Events, now)
	payload, err := json.Marshal(pb)
	if err != nil {
		return fmt.Errorf("encode playbook: %w", err)
	}
	if err := w.db.SavePlaybookSnapshot(w.duo.ID, payload, now); err != nil {
		return fmt.Errorf("save playbook snapshot: %w", err)
	}
	if reportJSON {
		return printJSON(pb)
	}
	w.header()
	report.PrintPlaybook(os.Stdout, pb)
	return nil
}

func runHighlights(cmd *cobra.Command, args []string) error {
	w, err := loadWindow(args[0], windowDays)
	if err != nil {
		return err
	}
	defer w.db.Close()

	h := scorecard.BuildHighlights(w.Matches, w.Events, clk.Now())
	if reportJSON {
		return printJSON(h)
	}
	w.header()
	report.PrintHighlights(os.Stdout, h)
	return nil
}

func runIntel(cmd *cobra.Command, args []string) error {
	w, err := loadWindow(args[0], windowDays)
	if err != nil {
		return err
	}
	defer w.db.Close()

	sc := scorecard.BuildScorecard(w.Matches, w.Events, clk.Now())
	in := intel.BuildIntel(w.Matches, &sc, aggregator.Summarize(w.Matches))
	if reportJSON {
		return printJSON(in)
	}
	w.header()
	report.PrintIntel(os.Stdout, in)
	return nil
}

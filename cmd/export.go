package cmd

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/intel"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
)

var (
	exportDays int
	exportOut  string
)

// duoExport is the top-level JSON schema written by export.
type duoExport struct {
	Duo         model.Duo           `json:"duo"`
	GeneratedAt time.Time           `json:"generatedAt"`
	WindowDays  int                 `json:"windowDays"`
	Cutoff      time.Time           `json:"cutoff"`
	Summary     aggregator.Summary  `json:"summary"`
	Scorecard   scorecard.Scorecard `json:"scorecard"`
	Intel       intel.Intel         `json:"coachingIntel"`
	Playbook    json.RawMessage     `json:"playbookSnapshot,omitempty"`
	Matches     []model.Match       `json:"matches"`
	Events      []model.Event       `json:"events"`
	Journals    []model.Journal     `json:"journals"`
}

var exportCmd = &cobra.Command{
	Use:   "export <duo>",
	Short: "Export a duo's window and analytics as one JSON document",
	Long: `Writes the window's matches, events, journals and every derived report,
plus the latest stored playbook snapshot, as a single JSON document.

Example:
  duometrics export 1a2b --window-days 90 --out duo.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().IntVar(&exportDays, "window-days", 30, "look-back window in days (1-365)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	w, err := loadWindow(args[0], exportDays)
	if err != nil {
		return err
	}
	defer w.db.Close()

	journals, err := w.db.Journals(w.duo.ID)
	if err != nil {
		return fmt.Errorf("get journals: %w", err)
	}
	snapshot, _, err := w.db.PlaybookSnapshot(w.duo.ID)
	if err != nil {
		return fmt.Errorf("get playbook snapshot: %w", err)
	}

	now := clk.Now()
	sc := scorecard.BuildScorecard(w.Matches, w.Events, now)
	summary := aggregator.Summarize(w.Matches)
	out := duoExport{
		Duo:         w.duo,
		GeneratedAt: now.UTC(),
		WindowDays:  w.Days,
		Cutoff:      w.Cutoff.UTC(),
		Summary:     summary,
		Scorecard:   sc,
		Intel:       intel.BuildIntel(w.Matches, &sc, summary),
		Playbook:    snapshot,
		Matches:     nonNil(w.Matches),
		Events:      nonNil(w.Events),
		Journals:    nonNil(journals),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if exportOut == "" {
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s (%d matches, %d events, %d journals)\n", exportOut, len(w.Matches), len(w.Events), len(journals))
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

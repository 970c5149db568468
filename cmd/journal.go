package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/history"
)

var (
	journalMatch    string
	journalPlan     string
	journalExecuted bool
	journalTags     []string
)

var journalCmd = &cobra.Command{
	Use:   "journal <duo>",
	Short: "Record a post-game journal entry",
	Long: `Stores a journal entry and logs an intent_tag event at stage 3-2 plus one
mistake_tag event per tag. At most 8 tags are kept.

Example:
  duometrics journal 1a2b --match NA1_123 --plan "A stabilizes, B greeds" --executed --tag panic_roll`,
	Args: cobra.ExactArgs(1),
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().StringVar(&journalMatch, "match", "", "match id")
	journalCmd.Flags().StringVar(&journalPlan, "plan", "", "plan declared at 3-2")
	journalCmd.Flags().BoolVar(&journalExecuted, "executed", false, "the plan was executed")
	journalCmd.Flags().StringSliceVar(&journalTags, "tag", nil, "mistake tag (repeatable)")
}

func runJournal(cmd *cobra.Command, args []string) error {
	db, duo, err := openDuo(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	lb := &history.Logbook{DB: db, Clock: clk}
	j, derived, err := lb.AddJournal(duo.ID, history.JournalEntry{
		MatchID:  journalMatch,
		PlanAt32: journalPlan,
		Executed: journalExecuted,
		Tags:     journalTags,
	})
	if err != nil {
		return fmt.Errorf("add journal: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Journal %s saved (tags: %s), %d events logged\n", j.ID, strings.Join(j.Tags, ", "), len(derived))
	return nil
}

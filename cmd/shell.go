package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/intel"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/report"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
	"github.com/pable/tft-duo-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// shellSession remembers the duo selected with 'use'.
type shellSession struct {
	db  *storage.DB
	duo *model.Duo
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	s := &shellSession{db: db}

	cGreeting.Println("duometrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("duometrics")
		if s.duo != nil {
			cMuted.Printf(" [%s]", s.duo.GameNameA+" + "+s.duo.GameNameB)
		}
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			s.list()
		case "use":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: use <duo-prefix>")
				continue
			}
			s.use(args[0])
		case "show", "trend", "summary", "events", "scorecard", "intel":
			duo, rest, ok := s.target(args)
			if !ok {
				cError.Fprintf(os.Stderr, "usage: %s [<duo-prefix>] (or pick one with 'use')\n", cmd)
				continue
			}
			s.report(cmd, duo, rest)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored duos"},
		{"use <duo-prefix>", "select a duo for the following commands"},
		{"show [<duo>] [n]", "newest n stored matches (default 20)"},
		{"trend [<duo>]", "chronological team-placement trend"},
		{"summary [<duo>]", "KPIs, player rollups and lobby meta"},
		{"events [<duo>]", "event log"},
		{"scorecard [<duo>] [days]", "window scorecard (default 30 days)"},
		{"intel [<duo>] [days]", "window coaching intel (default 30 days)"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-30s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) list() {
	duos, err := s.db.ListDuos()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(duos) == 0 {
		cMuted.Println("No duos stored yet.")
		return
	}
	report.PrintDuoList(os.Stdout, duos)
}

func (s *shellSession) use(prefix string) {
	duo, err := s.db.ResolveDuo(prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	s.duo = &duo
	cHeader.Printf("using %s\n", duo.Label())
}

// target picks the duo named by the first argument, or the selected one when
// the first argument is absent or numeric.
func (s *shellSession) target(args []string) (model.Duo, []string, bool) {
	if len(args) > 0 {
		if _, err := strconv.Atoi(args[0]); err != nil {
			duo, err := s.db.ResolveDuo(args[0])
			if err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
				return model.Duo{}, nil, false
			}
			return duo, args[1:], true
		}
	}
	if s.duo == nil {
		return model.Duo{}, nil, false
	}
	return *s.duo, args, true
}

func (s *shellSession) report(cmd string, duo model.Duo, rest []string) {
	n := 0
	if len(rest) > 0 {
		n, _ = strconv.Atoi(rest[0])
	}
	if err := s.runReport(cmd, duo, n); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func (s *shellSession) runReport(cmd string, duo model.Duo, n int) error {
	report.PrintDuoHeader(os.Stdout, duo)
	switch cmd {
	case "events":
		events, err := s.db.Events(duo.ID)
		if err != nil {
			return err
		}
		report.PrintEvents(os.Stdout, events)
		return nil
	case "scorecard", "intel":
		w, err := s.db.Window(duo.ID, n, clk.Now())
		if err != nil {
			return err
		}
		cMuted.Printf("last %d days, %d matches, %d events\n\n", w.Days, len(w.Matches), len(w.Events))
		sc := scorecard.BuildScorecard(w.Matches, w.Events, clk.Now())
		if cmd == "scorecard" {
			report.PrintScorecard(os.Stdout, sc)
		} else {
			report.PrintIntel(os.Stdout, intel.BuildIntel(w.Matches, &sc, aggregator.Summarize(w.Matches)))
		}
		return nil
	}

	matches, err := s.db.Matches(duo.ID)
	if err != nil {
		return err
	}
	switch cmd {
	case "show":
		if n <= 0 {
			n = 20
		}
		report.PrintMatchTable(os.Stdout, matches[:min(n, len(matches))])
	case "trend":
		report.PrintTrend(os.Stdout, matches)
	case "summary":
		report.PrintSummary(os.Stdout, duo, aggregator.Summarize(matches))
	}
	return nil
}

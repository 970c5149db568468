package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the duo database",
	Long: `Run an arbitrary SQL query against the duo database and print results as a table.

Schema overview:
  duos(duo_id, player_a_puuid, player_b_puuid, game_name_a, tag_line_a,
    game_name_b, tag_line_b, region, platform, created_at)
  duo_matches(duo_id, match_id, game_datetime, team_placement, same_team, payload)
  duo_events(seq, duo_id, event_id, event_type, match_id, stage_major, stage_minor,
    actor_slot, target_slot, payload, created_at)
  duo_journals(seq, duo_id, journal_id, match_id, plan_at_32, executed, tags, created_at)
  player_history(history_key, match_ids, updated_at, last_successful_sync_at, diagnostics)
  playbook_snapshots(duo_id, payload, created_at)

Times are epoch milliseconds. duo_matches.payload is compressed and prints as its size.
Example: SELECT team_placement, COUNT(*) FROM duo_matches GROUP BY 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}


package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/history"
	"github.com/pable/tft-duo-metrics/internal/report"
	"github.com/pable/tft-duo-metrics/internal/riot"
)

var (
	syncRegion     string
	syncPlatform   string
	syncCount      int
	syncMaxHistory int
	syncDeltaHours int
	syncJSON       bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <nameA#tagA> <nameB#tagB>",
	Short: "Fetch a duo's shared match history from the Riot API",
	Long: `Resolves both Riot IDs, refreshes each player's recent match ids and stores
every shared match that is not stored yet. Requires RIOT_API_KEY.

Match ids are refreshed with a time-window query since the last sync when
possible, then delta pagination when the stored history is fresh, then a full
refresh.

Example:
  duometrics sync "Alice#NA1" "Bob#NA1" --count 60`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncRegion, "region", "", "routing region: americas, europe or asia (default $DUOMETRICS_REGION)")
	syncCmd.Flags().StringVar(&syncPlatform, "platform", "", "platform for rank lookups, e.g. na1 (default $DUOMETRICS_PLATFORM)")
	syncCmd.Flags().IntVar(&syncCount, "count", history.DefaultCount, "shared matches to fetch (1-200)")
	syncCmd.Flags().IntVar(&syncMaxHistory, "max-history", history.DefaultMaxHistory, "match ids scanned per player (50-1000)")
	syncCmd.Flags().IntVar(&syncDeltaHours, "delta-hours", history.DefaultDeltaHours, "history freshness for delta pagination (1-168)")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "print the sync result as JSON")
}

func runSync(cmd *cobra.Command, args []string) error {
	if cfg.RiotAPIKey == "" {
		return errors.New("RIOT_API_KEY is not set (environment or .env)")
	}
	nameA, tagA, err := parseRiotID(args[0])
	if err != nil {
		return err
	}
	nameB, tagB, err := parseRiotID(args[1])
	if err != nil {
		return err
	}
	region := syncRegion
	if region == "" {
		region = cfg.Region
	}
	platform := syncPlatform
	if platform == "" {
		platform = cfg.Platform
	}

	client, err := riot.NewClient(cfg.RiotAPIKey, region, platform, riot.WithClock(clk), riot.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	syncer := &history.Syncer{Riot: client, DB: db, Clock: clk, Log: slog.Default()}
	res, err := syncer.SyncDuo(cmd.Context(), history.Params{
		GameNameA:  nameA,
		TagLineA:   tagA,
		GameNameB:  nameB,
		TagLineB:   tagB,
		Region:     region,
		Platform:   platform,
		Count:      syncCount,
		MaxHistory: syncMaxHistory,
		DeltaHours: syncDeltaHours,
	})
	if err != nil {
		return fmt.Errorf("sync duo: %w", err)
	}
	if syncJSON {
		return printJSON(res)
	}

	report.PrintSync(os.Stdout, res)
	stored, err := db.Matches(res.Duo.ID)
	if err != nil {
		return fmt.Errorf("get matches: %w", err)
	}
	fmt.Fprintln(os.Stdout)
	report.PrintSummary(os.Stdout, res.Duo, aggregator.Summarize(stored))
	return nil
}

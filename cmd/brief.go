package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/brief"
	"github.com/pable/tft-duo-metrics/internal/intel"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/report"
	"github.com/pable/tft-duo-metrics/internal/riot"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
)

var (
	briefDays          int
	briefObjective     string
	briefModel         string
	briefFallbackModel string
	briefNoWebSearch   bool
	briefJSON          bool
)

var briefCmd = &cobra.Command{
	Use:   "brief <duo>",
	Short: "Compose an AI coaching brief for a window",
	Long: `Sends the window's deterministic findings and compact match data to the
Anthropic API and prints the normalized coaching brief.

The primary model is tried with web search first, then without it, then the
fallback model. Without ANTHROPIC_API_KEY, or when every attempt fails, a local
deterministic brief is printed instead with the reason.

Player ranks are looked up when RIOT_API_KEY is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrief,
}

func init() {
	briefCmd.Flags().IntVar(&briefDays, "window-days", 30, "look-back window in days (1-365)")
	briefCmd.Flags().StringVar(&briefObjective, "objective", "", "coaching objective (default: climb rank as a duo)")
	briefCmd.Flags().StringVar(&briefModel, "model", "", "primary model (default $BRIEF_MODEL)")
	briefCmd.Flags().StringVar(&briefFallbackModel, "fallback-model", "", "fallback model (default $BRIEF_FALLBACK_MODEL)")
	briefCmd.Flags().BoolVar(&briefNoWebSearch, "no-web-search", false, "skip the web search attempt")
	briefCmd.Flags().BoolVar(&briefJSON, "json", false, "print JSON")
}

func runBrief(cmd *cobra.Command, args []string) error {
	w, err := loadWindow(args[0], briefDays)
	if err != nil {
		return err
	}
	defer w.db.Close()

	now := clk.Now()
	sc := scorecard.BuildScorecard(w.Matches, w.Events, now)
	summary := aggregator.Summarize(w.Matches)
	in := intel.BuildIntel(w.Matches, &sc, summary)
	players := duoPlayers(cmd.Context(), w.duo)
	input := brief.NewInput(players, w.Days, briefObjective, w.Matches, sc, in, summary)

	composer := &brief.Composer{
		PrimaryModel:  firstNonEmpty(briefModel, cfg.BriefModel),
		FallbackModel: firstNonEmpty(briefFallbackModel, cfg.FallbackModel),
		WebSearch:     cfg.BriefWebSearch && !briefNoWebSearch,
		Timeout:       cfg.BriefTimeout,
		Logger:        slog.Default(),
	}
	if cfg.AnthropicAPIKey != "" {
		composer.Model = brief.NewAnthropicModel(cfg.AnthropicAPIKey)
	}
	res := composer.Compose(cmd.Context(), input)
	if briefJSON {
		return printJSON(res)
	}
	w.header()
	report.PrintBrief(os.Stdout, res)
	return nil
}

// duoPlayers labels both players, with ranks when a Riot key is configured.
func duoPlayers(ctx context.Context, d model.Duo) brief.Players {
	p := brief.Players{
		A:     d.GameNameA + "#" + d.TagLineA,
		B:     d.GameNameB + "#" + d.TagLineB,
		RankA: riot.Unranked,
		RankB: riot.Unranked,
	}
	if cfg.RiotAPIKey == "" {
		return p
	}
	client, err := riot.NewClient(cfg.RiotAPIKey, d.Region, d.Platform, riot.WithClock(clk), riot.WithLogger(slog.Default()))
	if err != nil {
		slog.Debug("rank lookup skipped", "err", err)
		return p
	}
	p.RankA = client.Rank(ctx, d.PlayerAPUID)
	p.RankB = client.Rank(ctx, d.PlayerBPUID)
	return p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

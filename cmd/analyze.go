package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/aggregator"
	"github.com/pable/tft-duo-metrics/internal/brief"
	"github.com/pable/tft-duo-metrics/internal/intel"
	"github.com/pable/tft-duo-metrics/internal/scorecard"
)

const analyzeSystemPrompt = `You are a TFT Double Up performance analyst. You are given structured data
about one duo from an analytics tool and a question from the players.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable. Focus on what the duo can actually change.
- Avoid generic TFT advice unless it directly explains a pattern in the data.

Metrics glossary:
- Team placement: the duo's 1-4 finish in Double Up. Top 2 is a good game.
- Estimated LP: +35 / +20 / -15 / -30 for team placements 1 to 4.
- Decision grade: 0-100 process score. Outcome terms compare top and bottom same-team finishes; panic rolls, missed gifts and low-gold roll-downs subtract.
- Duo risk: 0-100, rises with decision leaks and per-player loss pressure.
- Momentum: prior average team placement minus recent average. Positive is improving.
- Gift ROI: % of logged gifts that led to a partner spike or stabilization.
- Rescue rate / clutch index: share of logged events that were rescue arrivals, and stage 4+ rescues that won the round.
- Meta pressure: overlap of the duo's traits with the lobby's most played traits. High means contested.
- Tilt score: recent placement drift, variance jump, losing streaks and roll leaks combined.`

var (
	analyzeModel string
	analyzeDays  int
	analyzeLast  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <duo> <question>",
	Short: "AI-powered grounded Q&A over a duo's window (requires ANTHROPIC_API_KEY)",
	Long: `Sends the window's summary, scorecard, coaching intel and compact matches
to the Anthropic API together with your question and streams the answer.

Example:
  duometrics analyze 1a2b "Why do we bottom two when we both play tempo?"`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Anthropic model to use (default $BRIEF_FALLBACK_MODEL)")
	analyzeCmd.Flags().IntVar(&analyzeDays, "window-days", 30, "look-back window in days (1-365)")
	analyzeCmd.Flags().IntVar(&analyzeLast, "last", 0, "only use the N most recent matches")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	w, err := loadWindow(args[0], analyzeDays)
	if err != nil {
		return err
	}
	defer w.db.Close()

	matches := w.Matches // newest first
	if analyzeLast > 0 && len(matches) > analyzeLast {
		matches = matches[:analyzeLast]
	}
	if len(matches) == 0 {
		return fmt.Errorf("no matches for %s in the last %d days", w.duo.Label(), w.Days)
	}

	now := clk.Now()
	sc := scorecard.BuildScorecard(matches, w.Events, now)
	summary := aggregator.Summarize(matches)
	in := intel.BuildIntel(matches, &sc, summary)
	input := brief.NewInput(duoPlayers(cmd.Context(), w.duo), w.Days, "", matches, sc, in, summary)

	data, err := json.Marshal(struct {
		Summary aggregator.Summary `json:"summary"`
		brief.Input
	}{summary, input})
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	return callAnthropic(cmd.Context(), cfg.AnthropicAPIKey, firstNonEmpty(analyzeModel, cfg.FallbackModel), string(data), args[1])
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY in the environment or .env")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n--- AI Analysis -------------------------------------")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n-----------------------------------------------------")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}

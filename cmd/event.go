package cmd

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/history"
	"github.com/pable/tft-duo-metrics/internal/model"
)

var (
	eventType    string
	eventMatch   string
	eventStage   string
	eventActor   string
	eventTarget  string
	eventPayload string
	eventFile    string
)

var eventCmd = &cobra.Command{
	Use:   "event <duo>",
	Short: "Log a coaching event (or a batch from a JSON file)",
	Long: `Appends events to a duo's event log. Either describe one event with flags
or pass --file with a single event object, an array of events, or
{"matchId": "...", "events": [...]}.

Known types: gift_sent, rescue_arrival, roll_down, missed_bailout,
comms_snapshot, intent_tag, mistake_tag. Other types are stored as-is.

Example:
  duometrics event 1a2b --type roll_down --stage 4-1 --actor a --payload '{"goldBefore":52,"goldAfter":8}'`,
	Args: cobra.ExactArgs(1),
	RunE: runEvent,
}

func init() {
	eventCmd.Flags().StringVar(&eventType, "type", "", "event type")
	eventCmd.Flags().StringVar(&eventMatch, "match", "", "match id the event belongs to")
	eventCmd.Flags().StringVar(&eventStage, "stage", "", `stage, e.g. "3-2"`)
	eventCmd.Flags().StringVar(&eventActor, "actor", "", "acting slot (a or b)")
	eventCmd.Flags().StringVar(&eventTarget, "target", "", "target slot (a or b)")
	eventCmd.Flags().StringVar(&eventPayload, "payload", "", "payload as a JSON object")
	eventCmd.Flags().StringVarP(&eventFile, "file", "f", "", "read events from a JSON file")
}

func runEvent(cmd *cobra.Command, args []string) error {
	batch, err := eventBatchFromFlags()
	if err != nil {
		return err
	}
	db, duo, err := openDuo(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	lb := &history.Logbook{DB: db, Clock: clk}
	events, err := lb.AddEvents(duo.ID, batch)
	if err != nil {
		return fmt.Errorf("add events: %w", err)
	}
	for _, e := range events {
		fmt.Fprintf(os.Stdout, "Logged %s %s\n", e.Type, e.ID)
	}
	return nil
}

func eventBatchFromFlags() (model.EventBatch, error) {
	if eventFile != "" {
		data, err := os.ReadFile(eventFile)
		if err != nil {
			return model.EventBatch{}, fmt.Errorf("read events: %w", err)
		}
		batch, err := model.ParseEventBatch(data)
		if err != nil {
			return model.EventBatch{}, fmt.Errorf("parse %s: %w", eventFile, err)
		}
		if eventMatch != "" && batch.MatchID == "" {
			batch.MatchID = eventMatch
		}
		return batch, nil
	}
	if eventType == "" {
		return model.EventBatch{}, errors.New("--type or --file is required")
	}
	raw := model.RawEvent{
		Type:       eventType,
		MatchID:    eventMatch,
		Stage:      eventStage,
		ActorSlot:  eventActor,
		TargetSlot: eventTarget,
	}
	if eventPayload != "" {
		if err := json.Unmarshal([]byte(eventPayload), &raw.Payload); err != nil {
			return model.EventBatch{}, fmt.Errorf("--payload must be a JSON object: %w", err)
		}
	}
	return model.EventBatch{Events: []model.RawEvent{raw}}, nil
}

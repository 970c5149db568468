package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/itbasis/go-clock"
	"github.com/spf13/cobra"

	"github.com/pable/tft-duo-metrics/internal/config"
	"github.com/pable/tft-duo-metrics/internal/model"
	"github.com/pable/tft-duo-metrics/internal/storage"
)

var (
	dbPath  string
	envFile string
	verbose bool

	cfg config.Config
	clk clock.Clock = clock.New()
)

var rootCmd = &cobra.Command{
	Use:   "duometrics",
	Short: "TFT Double Up duo analytics",
	Long:  "Sync a duo's shared TFT Double Up history from the Riot API, log coaching events and compute duo reports.",
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default $DUOMETRICS_DB or ~/.duometrics/duo.db)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default ./.env when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(briefCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads configuration and installs the stderr logger.
func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	c, err := config.Load(envFile)
	if err != nil {
		return err
	}
	cfg = c
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	return nil
}

// openDB opens the store, creating its directory on first use.
func openDB() (*storage.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// openDuo opens the store and resolves a duo id prefix.
func openDuo(prefix string) (*storage.DB, model.Duo, error) {
	db, err := openDB()
	if err != nil {
		return nil, model.Duo{}, err
	}
	duo, err := db.ResolveDuo(prefix)
	if err != nil {
		db.Close()
		return nil, model.Duo{}, fmt.Errorf("resolve duo: %w", err)
	}
	return db, duo, nil
}

// parseRiotID splits "gameName#tagLine".
func parseRiotID(s string) (string, string, error) {
	name, tag, ok := strings.Cut(s, "#")
	name, tag = strings.TrimSpace(name), strings.TrimSpace(tag)
	if !ok || name == "" || tag == "" {
		return "", "", fmt.Errorf("riot id %q must look like gameName#tagLine", s)
	}
	return name, tag, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(b))
	return nil
}

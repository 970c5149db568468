// Package config reads settings from the environment, optionally seeded from
// a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEnvFile       = ".env"
	DefaultRegion        = "americas"
	DefaultPlatform      = "na1"
	DefaultBriefModel    = "claude-sonnet-4-5"
	DefaultFallbackModel = "claude-haiku-4-5-20251001"
	DefaultBriefTimeout  = 15 * time.Second
	MinBriefTimeout      = 3 * time.Second
)

// Config is the resolved runtime configuration.
type Config struct {
	RiotAPIKey      string
	AnthropicAPIKey string
	DBPath          string
	Region          string
	Platform        string
	BriefModel      string
	FallbackModel   string
	BriefTimeout    time.Duration
	BriefWebSearch  bool
}

// Load reads envFile into the process environment without overriding
// variables that are already set, then resolves Config. A missing default
// .env is not an error; a missing explicitly named file is.
func Load(envFile string) (Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv resolves Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Config{
		RiotAPIKey:      strings.TrimSpace(getenv("RIOT_API_KEY")),
		AnthropicAPIKey: strings.TrimSpace(getenv("ANTHROPIC_API_KEY")),
		DBPath:          strings.TrimSpace(getenv("DUOMETRICS_DB")),
		Region:          strings.ToLower(or(getenv("DUOMETRICS_REGION"), DefaultRegion)),
		Platform:        strings.ToLower(or(getenv("DUOMETRICS_PLATFORM"), DefaultPlatform)),
		BriefModel:      or(getenv("BRIEF_MODEL"), DefaultBriefModel),
		FallbackModel:   or(getenv("BRIEF_FALLBACK_MODEL"), DefaultFallbackModel),
		BriefTimeout:    DefaultBriefTimeout,
		BriefWebSearch:  true,
	}
	if c.DBPath == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
		c.DBPath = p
	}
	if v := strings.TrimSpace(getenv("BRIEF_TIMEOUT_MS")); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("BRIEF_TIMEOUT_MS: %w", err)
		}
		c.BriefTimeout = max(MinBriefTimeout, time.Duration(ms)*time.Millisecond)
	}
	if v := strings.TrimSpace(getenv("BRIEF_WEB_SEARCH")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("BRIEF_WEB_SEARCH: %w", err)
		}
		c.BriefWebSearch = b
	}
	return c, nil
}

// DefaultDBPath is ~/.duometrics/duo.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home dir: %w", err)
	}
	return filepath.Join(home, ".duometrics", "duo.db"), nil
}

func or(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

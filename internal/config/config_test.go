package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv(envMap(map[string]string{"DUOMETRICS_DB": "/tmp/x.db"}))
	if err != nil {
		t.Fatal(err)
	}
	if c.DBPath != "/tmp/x.db" || c.Region != DefaultRegion || c.Platform != DefaultPlatform {
		t.Errorf("config = %+v", c)
	}
	if c.BriefModel != DefaultBriefModel || c.FallbackModel != DefaultFallbackModel {
		t.Errorf("models = %q, %q", c.BriefModel, c.FallbackModel)
	}
	if c.BriefTimeout != DefaultBriefTimeout || !c.BriefWebSearch {
		t.Errorf("brief = %v, %v", c.BriefTimeout, c.BriefWebSearch)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	c, err := FromEnv(envMap(map[string]string{
		"DUOMETRICS_DB":       "/tmp/x.db",
		"DUOMETRICS_REGION":   "EUROPE",
		"RIOT_API_KEY":        " RGAPI-1 ",
		"BRIEF_TIMEOUT_MS":    "500",
		"BRIEF_WEB_SEARCH":    "false",
		"BRIEF_MODEL":         "m1",
		"ANTHROPIC_API_KEY":   "sk",
		"DUOMETRICS_PLATFORM": "euw1",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if c.Region != "europe" || c.Platform != "euw1" || c.RiotAPIKey != "RGAPI-1" || c.BriefModel != "m1" {
		t.Errorf("config = %+v", c)
	}
	if c.BriefTimeout != MinBriefTimeout {
		t.Errorf("timeout = %v, want floor %v", c.BriefTimeout, MinBriefTimeout)
	}
	if c.BriefWebSearch {
		t.Error("web search should be disabled")
	}

	c, err = FromEnv(envMap(map[string]string{"DUOMETRICS_DB": "x", "BRIEF_TIMEOUT_MS": "20000"}))
	if err != nil || c.BriefTimeout != 20*time.Second {
		t.Errorf("timeout = %v, %v", c.BriefTimeout, err)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	if _, err := FromEnv(envMap(map[string]string{"DUOMETRICS_DB": "x", "BRIEF_TIMEOUT_MS": "soon"})); err == nil {
		t.Error("expected error for BRIEF_TIMEOUT_MS")
	}
	if _, err := FromEnv(envMap(map[string]string{"DUOMETRICS_DB": "x", "BRIEF_WEB_SEARCH": "maybe"})); err == nil {
		t.Error("expected error for BRIEF_WEB_SEARCH")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("BRIEF_FALLBACK_MODEL=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Setenv registers the restore; the variable must be unset for the file to apply.
	t.Setenv("BRIEF_FALLBACK_MODEL", "")
	os.Unsetenv("BRIEF_FALLBACK_MODEL")
	t.Setenv("DUOMETRICS_DB", "/tmp/x.db")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.FallbackModel != "from-file" {
		t.Errorf("fallback model = %q", c.FallbackModel)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for a missing explicit env file")
	}
}

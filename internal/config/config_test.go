package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"saucebot/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "[saucenao]\napi_key = \"shared-key\"\n")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path, got %q exists=%v", resolved, exists)
	}
	if cfg.SauceNao.BaseURL != "https://saucenao.com" {
		t.Fatalf("unexpected saucenao base url: %q", cfg.SauceNao.BaseURL)
	}
	if cfg.Cache.TTLHours != 24 || cfg.Cache.PurgeIntervalHours != 6 {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.SauceNao.GuildDailyLimit != 10000 {
		t.Fatalf("unexpected guild limit: %d", cfg.SauceNao.GuildDailyLimit)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("expected expanded data dir, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("SAUCENAO_API_KEY", "")
	path := writeConfig(t, "")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error when saucenao.api_key missing")
	}
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	t.Setenv("SAUCENAO_API_KEY", "env-key")
	path := writeConfig(t, "")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SauceNao.APIKey != "env-key" {
		t.Fatalf("expected env key, got %q", cfg.SauceNao.APIKey)
	}
}

func TestLoadRejectsBadSimilarity(t *testing.T) {
	path := writeConfig(t, "[saucenao]\napi_key = \"k\"\nmin_similarity = 150.0\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for out-of-range similarity")
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	path := writeConfig(t, "[saucenao]\napi_key = \"k\"\n[logging]\nformat = \"xml\"\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestChannelAllowed(t *testing.T) {
	cfg := config.Default()
	if !cfg.ChannelAllowed("anything") {
		t.Fatal("empty allow-list should allow every channel")
	}
	cfg.Chat.CommandChannels = []string{"123", "456"}
	if !cfg.ChannelAllowed("456") {
		t.Fatal("listed channel should be allowed")
	}
	if cfg.ChannelAllowed("789") {
		t.Fatal("unlisted channel should be rejected")
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[saucenao]") {
		t.Fatal("sample config missing saucenao section")
	}
}

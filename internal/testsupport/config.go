package testsupport

import (
	"path/filepath"
	"testing"

	"saucebot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.SauceNao.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMemberLimit sets the per-user query limit on the test config.
func WithMemberLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.SauceNao.MemberQueryLimit = limit
	}
}

// WithGuildLimit sets the shared guild quota on the test config.
func WithGuildLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.SauceNao.GuildDailyLimit = limit
	}
}

package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"saucebot/internal/config"
	"saucebot/internal/logging"
	"saucebot/internal/saucenao"
	"saucebot/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the SQLite store for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

func (c *commandContext) newSearcher() (*saucenao.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.SauceNao.TimeoutSeconds) * time.Second
	return saucenao.New(cfg.SauceNao.APIKey, cfg.SauceNao.BaseURL, cfg.SauceNao.MinSimilarity, timeout)
}

// newLogger builds a logger for command pipelines. CLI output goes to
// stdout, so logs go to stderr to keep tables parseable.
func (c *commandContext) newLogger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

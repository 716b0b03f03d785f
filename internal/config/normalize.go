package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSauceNao()
	c.normalizeTraceMoe()
	c.normalizeAnimeIDs()
	c.normalizeCache()
	c.normalizeChat()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSauceNao() {
	c.SauceNao.APIKey = strings.TrimSpace(c.SauceNao.APIKey)
	if c.SauceNao.APIKey == "" {
		if value, ok := os.LookupEnv("SAUCENAO_API_KEY"); ok {
			c.SauceNao.APIKey = strings.TrimSpace(value)
		}
	}
	c.SauceNao.BaseURL = strings.TrimRight(strings.TrimSpace(c.SauceNao.BaseURL), "/")
	if c.SauceNao.BaseURL == "" {
		c.SauceNao.BaseURL = defaultSauceNaoBaseURL
	}
	if c.SauceNao.TimeoutSeconds <= 0 {
		c.SauceNao.TimeoutSeconds = defaultServiceTimeoutSecs
	}
	if c.SauceNao.GuildDailyLimit <= 0 {
		c.SauceNao.GuildDailyLimit = defaultGuildDailyLimit
	}
}

func (c *Config) normalizeTraceMoe() {
	c.TraceMoe.Token = strings.TrimSpace(c.TraceMoe.Token)
	if c.TraceMoe.Token == "" {
		if value, ok := os.LookupEnv("TRACEMOE_TOKEN"); ok {
			c.TraceMoe.Token = strings.TrimSpace(value)
		}
	}
	c.TraceMoe.BaseURL = strings.TrimRight(strings.TrimSpace(c.TraceMoe.BaseURL), "/")
	if c.TraceMoe.BaseURL == "" {
		c.TraceMoe.BaseURL = defaultTraceMoeBaseURL
	}
	if c.TraceMoe.TimeoutSeconds <= 0 {
		c.TraceMoe.TimeoutSeconds = defaultServiceTimeoutSecs
	}
}

func (c *Config) normalizeAnimeIDs() {
	c.AnimeIDs.BaseURL = strings.TrimRight(strings.TrimSpace(c.AnimeIDs.BaseURL), "/")
	if c.AnimeIDs.BaseURL == "" {
		c.AnimeIDs.BaseURL = defaultAnimeIDsBaseURL
	}
	if c.AnimeIDs.TimeoutSeconds <= 0 {
		c.AnimeIDs.TimeoutSeconds = defaultServiceTimeoutSecs
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}
	if c.Cache.PurgeIntervalHours <= 0 {
		c.Cache.PurgeIntervalHours = defaultPurgeIntervalHours
	}
}

func (c *Config) normalizeChat() {
	channels := make([]string, 0, len(c.Chat.CommandChannels))
	for _, channel := range c.Chat.CommandChannels {
		if channel = strings.TrimSpace(channel); channel != "" {
			channels = append(channels, channel)
		}
	}
	c.Chat.CommandChannels = channels
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeoutSecs
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSauceNao(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSauceNao() error {
	if c.SauceNao.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/saucebot/config.toml"
		}
		return fmt.Errorf("saucenao.api_key is required. Set SAUCENAO_API_KEY env var or edit %s (create with 'saucebot config init')", defaultPath)
	}
	if c.SauceNao.MinSimilarity < 0 || c.SauceNao.MinSimilarity > 100 {
		return errors.New("saucenao.min_similarity must be between 0 and 100")
	}
	if c.SauceNao.MemberQueryLimit < 0 {
		return errors.New("saucenao.member_query_limit must not be negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTLHours <= 0 {
		return errors.New("cache.ttl_hours must be positive")
	}
	if c.Cache.PurgeIntervalHours <= 0 {
		return errors.New("cache.purge_interval_hours must be positive")
	}
	return nil
}

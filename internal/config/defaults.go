package config

const (
	defaultDataDir            = "~/.local/share/saucebot"
	defaultLogDir             = "~/.local/share/saucebot/logs"
	defaultSauceNaoBaseURL    = "https://saucenao.com"
	defaultMinSimilarity      = 50.0
	defaultGuildDailyLimit    = 10000
	defaultTraceMoeBaseURL    = "https://api.trace.moe"
	defaultAnimeIDsBaseURL    = "https://relations.yuna.moe"
	defaultServiceTimeoutSecs = 15
	defaultCacheTTLHours      = 24
	defaultPurgeIntervalHours = 6
	defaultNtfyTimeoutSecs    = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		SauceNao: SauceNao{
			BaseURL:         defaultSauceNaoBaseURL,
			MinSimilarity:   defaultMinSimilarity,
			GuildDailyLimit: defaultGuildDailyLimit,
			TimeoutSeconds:  defaultServiceTimeoutSecs,
		},
		TraceMoe: TraceMoe{
			BaseURL:        defaultTraceMoeBaseURL,
			TimeoutSeconds: defaultServiceTimeoutSecs,
		},
		AnimeIDs: AnimeIDs{
			BaseURL:        defaultAnimeIDsBaseURL,
			TimeoutSeconds: defaultServiceTimeoutSecs,
		},
		Cache: Cache{
			TTLHours:           defaultCacheTTLHours,
			PurgeIntervalHours: defaultPurgeIntervalHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeoutSecs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

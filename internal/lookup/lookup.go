// Package lookup coordinates a single reverse image search: it logs
// the query, consults the cache, picks the API credential for the
// guild, and caches whatever the search finds.
package lookup

import (
	"context"
	"log/slog"

	"saucebot/internal/logging"
	"saucebot/internal/sauce"
	"saucebot/internal/saucenao"
	"saucebot/internal/services"
	"saucebot/internal/store"
)

const component = "lookup"

// Store is the persistence surface the service needs.
type Store interface {
	LogQuery(ctx context.Context, userID, guildID, url string) error
	CacheFetch(ctx context.Context, url string) (*store.CacheEntry, error)
	CacheStore(ctx context.Context, url string, result *sauce.Result) error
	GuildKey(ctx context.Context, guildID string) (*store.GuildAPIKey, error)
}

// Outcome is the product of one lookup.
type Outcome struct {
	// Result is nil when nothing matched above the similarity floor.
	Result *sauce.Result

	// FromCache is set when the result was served without an API call.
	FromCache bool
}

// Service performs lookups.
type Service struct {
	store    Store
	searcher saucenao.Searcher
	logger   *slog.Logger
}

// New creates a lookup service.
func New(st Store, searcher saucenao.Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:    st,
		searcher: searcher,
		logger:   logging.NewComponentLogger(logger, component),
	}
}

// Lookup searches for the source of imageURL on behalf of a guild
// member. The query is logged before the cache is consulted, so cached
// hits still count against quotas.
func (s *Service) Lookup(ctx context.Context, guildID, userID, imageURL string) (*Outcome, error) {
	if err := s.store.LogQuery(ctx, userID, guildID, imageURL); err != nil {
		return nil, services.Wrap(nil, component, "lookup", "log query", err)
	}

	entry, err := s.store.CacheFetch(ctx, imageURL)
	if err != nil {
		return nil, services.Wrap(nil, component, "lookup", "read cache", err)
	}
	if entry != nil {
		result, err := entry.Result()
		if err == nil {
			s.logger.Info("cache entry found",
				logging.String(logging.FieldURL, imageURL),
				logging.String("title", result.DisplayTitle()))
			return &Outcome{Result: result, FromCache: true}, nil
		}
		// Undecodable entries are treated as misses; the fresh result
		// overwrites them below.
		s.logger.Warn("discarding undecodable cache entry",
			logging.String(logging.FieldURL, imageURL),
			logging.Error(err))
	}

	apiKey := ""
	guildKey, err := s.store.GuildKey(ctx, guildID)
	if err != nil {
		return nil, services.Wrap(nil, component, "lookup", "look up guild key", err)
	}
	if guildKey != nil {
		apiKey = guildKey.APIKey
	}

	response, err := s.searcher.Search(ctx, apiKey, imageURL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("api queries remaining",
		logging.String(logging.FieldGuildID, guildID),
		logging.Bool("guild_key", guildKey != nil),
		logging.Int("short_remaining", response.ShortRemaining),
		logging.Int("long_remaining", response.LongRemaining))

	result := response.Best()
	if result == nil {
		return &Outcome{}, nil
	}

	if err := s.store.CacheStore(ctx, imageURL, result); err != nil {
		s.logger.Warn("failed to cache search result",
			logging.String(logging.FieldURL, imageURL),
			logging.Error(err))
	}
	return &Outcome{Result: result}, nil
}

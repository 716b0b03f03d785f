// Package ratelimit enforces the per-guild and per-member query quotas
// over a rolling window of logged lookups.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"saucebot/internal/logging"
	"saucebot/internal/services"
	"saucebot/internal/store"
)

const component = "ratelimit"

// Window is the rolling period both quotas are computed over.
const Window = 24 * time.Hour

// Store is the subset of the persistence layer the limiter consults.
type Store interface {
	UserQueryCount(ctx context.Context, userID string, since time.Time) (int, error)
	GuildQueryCount(ctx context.Context, guildID string, since time.Time) (int, error)
	GuildKey(ctx context.Context, guildID string) (*store.GuildAPIKey, error)
}

// Limiter answers whether a lookup may proceed.
type Limiter struct {
	store       Store
	guildLimit  int
	memberLimit int
	logger      *slog.Logger
}

// New creates a Limiter. A memberLimit of zero disables the per-member
// quota; the guild quota only applies to guilds without their own key.
func New(st Store, guildLimit, memberLimit int, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Limiter{
		store:       st,
		guildLimit:  guildLimit,
		memberLimit: memberLimit,
		logger:      logging.NewComponentLogger(logger, component),
	}
}

// CheckMember returns ErrMemberQuota when the user has exhausted their
// rolling allowance.
func (l *Limiter) CheckMember(ctx context.Context, userID string) error {
	if l.memberLimit <= 0 {
		return nil
	}
	count, err := l.store.UserQueryCount(ctx, userID, time.Now().Add(-Window))
	if err != nil {
		return services.Wrap(nil, component, "check member", "count member queries", err)
	}
	if count >= l.memberLimit {
		l.logger.Info("member query quota exhausted",
			logging.String(logging.FieldUserID, userID),
			logging.Int("count", count),
			logging.Int("limit", l.memberLimit))
		return services.Wrap(services.ErrMemberQuota, component, "check member",
			fmt.Sprintf("member used %d of %d queries", count, l.memberLimit), nil)
	}
	return nil
}

// CheckGuild returns ErrGuildQuota when the guild has exhausted the
// shared allowance. Guilds that registered their own enhanced key are
// exempt.
func (l *Limiter) CheckGuild(ctx context.Context, guildID string) error {
	if l.guildLimit <= 0 {
		return nil
	}
	key, err := l.store.GuildKey(ctx, guildID)
	if err != nil {
		return services.Wrap(nil, component, "check guild", "look up guild key", err)
	}
	if key != nil {
		return nil
	}
	count, err := l.store.GuildQueryCount(ctx, guildID, time.Now().Add(-Window))
	if err != nil {
		return services.Wrap(nil, component, "check guild", "count guild queries", err)
	}
	if count >= l.guildLimit {
		l.logger.Info("guild query quota exhausted",
			logging.String(logging.FieldGuildID, guildID),
			logging.Int("count", count),
			logging.Int("limit", l.guildLimit))
		return services.Wrap(services.ErrGuildQuota, component, "check guild",
			fmt.Sprintf("guild used %d of %d queries", count, l.guildLimit), nil)
	}
	return nil
}

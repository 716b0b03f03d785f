package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"saucebot/internal/chat"
	"saucebot/internal/config"
	"saucebot/internal/logging"
	"saucebot/internal/lookup"
	"saucebot/internal/notifications"
	"saucebot/internal/preview"
	"saucebot/internal/ratelimit"
	"saucebot/internal/render"
	"saucebot/internal/resolver"
	"saucebot/internal/saucenao"
	"saucebot/internal/services"
	"saucebot/internal/store"
)

const component = "bot"

// Bot wires the lookup pipeline behind the chat commands.
type Bot struct {
	cfg      *config.Config
	store    *store.Store
	resolver *resolver.Resolver
	lookup   *lookup.Service
	limiter  *ratelimit.Limiter
	previews *preview.Reconciler
	renderer *render.Renderer
	searcher saucenao.Searcher
	notifier notifications.Service
	logger   *slog.Logger

	// selfID is the bot's own user ID, set once the gateway connects.
	selfID string

	lock      *flock.Flock
	scheduler *PurgeScheduler
}

// Deps collects the collaborators a Bot needs.
type Deps struct {
	Config   *config.Config
	Store    *store.Store
	Resolver *resolver.Resolver
	Lookup   *lookup.Service
	Limiter  *ratelimit.Limiter
	Previews *preview.Reconciler
	Renderer *render.Renderer
	Searcher saucenao.Searcher
	Notifier notifications.Service
	Logger   *slog.Logger
}

// New assembles a Bot from its collaborators.
func New(deps Deps) (*Bot, error) {
	if deps.Config == nil {
		return nil, errors.New("config required")
	}
	if deps.Store == nil {
		return nil, errors.New("store required")
	}
	if deps.Resolver == nil || deps.Lookup == nil || deps.Limiter == nil || deps.Renderer == nil {
		return nil, errors.New("pipeline components required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(deps.Config)
	}
	b := &Bot{
		cfg:      deps.Config,
		store:    deps.Store,
		resolver: deps.Resolver,
		lookup:   deps.Lookup,
		limiter:  deps.Limiter,
		previews: deps.Previews,
		renderer: deps.Renderer,
		searcher: deps.Searcher,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, component),
	}
	b.scheduler = NewPurgeScheduler(deps.Store, notifier, logger, deps.Config.CacheTTL(), deps.Config.PurgeInterval())
	return b, nil
}

// SetSelfID records the bot's own user ID so it can ignore its own
// messages. Gateways call this after connecting.
func (b *Bot) SetSelfID(id string) {
	b.selfID = id
}

// Start acquires the single-instance lock and launches background work.
func (b *Bot) Start(ctx context.Context) error {
	b.lock = flock.New(b.cfg.LockPath())
	locked, err := b.lock.TryLock()
	if err != nil {
		return services.Wrap(nil, component, "start", "acquire instance lock", err)
	}
	if !locked {
		return services.Wrap(nil, component, "start",
			fmt.Sprintf("another instance holds %s", b.cfg.LockPath()), nil)
	}
	if err := b.scheduler.Start(ctx); err != nil {
		_ = b.lock.Unlock()
		return err
	}
	_ = b.notifier.NotifyStarted(ctx)
	b.logger.Info("bot started")
	return nil
}

// Stop halts background work and releases the instance lock.
func (b *Bot) Stop(ctx context.Context) {
	b.scheduler.Stop()
	if b.lock != nil {
		if err := b.lock.Unlock(); err != nil {
			b.logger.Warn("failed to release instance lock", logging.Error(err))
		}
		b.lock = nil
	}
	_ = b.notifier.NotifyStopped(ctx)
	b.logger.Info("bot stopped")
}

// HandleSauce runs the lookup command for a message. arg is the
// optional explicit image URL following the command word.
func (b *Bot) HandleSauce(ctx context.Context, channel chat.Channel, command *chat.Message, arg string) error {
	if !b.cfg.ChannelAllowed(command.ChannelID) {
		return nil
	}
	if b.selfID != "" && command.AuthorID == b.selfID {
		return nil
	}

	logger := b.logger.With(
		logging.String(logging.FieldCorrelationID, uuid.NewString()),
		logging.String(logging.FieldGuildID, command.GuildID),
		logging.String(logging.FieldUserID, command.AuthorID),
	)

	resolution, err := b.resolver.Resolve(ctx, channel, command, arg)
	if err != nil {
		if errors.Is(err, services.ErrSelectionTimedOut) {
			// The resolver already removed the prompt and command.
			return nil
		}
		return b.fail(ctx, logger, channel, command, err)
	}
	logger.Info("looking up image source", logging.String(logging.FieldURL, resolution.URL))

	if err := b.limiter.CheckMember(ctx, command.AuthorID); err != nil {
		return b.fail(ctx, logger, channel, command, err)
	}
	if err := b.limiter.CheckGuild(ctx, command.GuildID); err != nil {
		if errors.Is(err, services.ErrGuildQuota) {
			_ = b.notifier.NotifyQuotaExhausted(ctx, command.GuildID)
		}
		return b.fail(ctx, logger, channel, command, err)
	}

	outcome, err := b.lookup.Lookup(ctx, command.GuildID, command.AuthorID, resolution.URL)
	if err != nil {
		if errors.Is(err, services.ErrInvalidKey) {
			_ = b.notifier.NotifyKeyRejected(ctx, command.GuildID)
		}
		return b.fail(ctx, logger, channel, command, err)
	}

	if outcome.Result == nil {
		logger.Info("no image sources found")
		_, err := channel.ReplyTo(ctx, command.ID, chat.Reply{Embed: b.renderer.NotFound(resolution.URL)})
		return err
	}

	reply := chat.Reply{Embed: b.renderer.Result(ctx, outcome.Result)}
	if clip := b.previews.For(ctx, outcome.Result, resolution.URL); clip != nil {
		if clip.NSFW && !channel.NSFW() {
			logger.Info("withholding nsfw preview from sfw channel",
				logging.String(logging.FieldChannelID, channel.ID()))
		} else {
			reply.File = &chat.File{Name: clip.Filename, Data: clip.Data}
		}
	}

	if _, err := channel.ReplyTo(ctx, command.ID, reply); err != nil {
		return services.Wrap(nil, component, "sauce", "send response", err)
	}

	// The command message is noise once answered, unless it carries the
	// image itself or points at the message that does.
	if !resolution.FromCommand && !resolution.FromReply {
		if err := channel.Delete(ctx, command.ID); err != nil {
			logger.Warn("failed to remove command message", logging.Error(err))
		}
	}
	return nil
}

// HandleAPIKey registers an enhanced SauceNAO key for a guild. The
// command message is always removed first so the key never lingers in
// chat history.
func (b *Bot) HandleAPIKey(ctx context.Context, channel chat.Channel, command *chat.Message, apiKey string) error {
	logger := b.logger.With(
		logging.String(logging.FieldCorrelationID, uuid.NewString()),
		logging.String(logging.FieldGuildID, command.GuildID),
	)

	if err := channel.Delete(ctx, command.ID); err != nil {
		logger.Warn("failed to remove key registration message", logging.Error(err))
	}

	if !saucenao.ValidKeyFormat(apiKey) {
		_, err := channel.Send(ctx, chat.Reply{Embed: b.renderer.Error(
			services.Wrap(services.ErrBadKeyFormat, component, "apikey", "malformed key", nil))})
		return err
	}

	info, err := b.searcher.Test(ctx, apiKey)
	if err != nil {
		logger.Warn("api key validation failed", logging.Error(err))
		_, sendErr := channel.Send(ctx, chat.Reply{Embed: b.renderer.Error(err)})
		return sendErr
	}
	if !info.Enhanced() {
		logger.Info("rejecting attempt to register a free tier key")
		_, err := channel.Send(ctx, chat.Reply{Embed: b.renderer.Error(
			services.Wrap(services.ErrFreeTierKey, component, "apikey", "free tier key", nil))})
		return err
	}

	if err := b.store.RegisterGuildKey(ctx, command.GuildID, apiKey, command.AuthorID); err != nil {
		return services.Wrap(nil, component, "apikey", "persist guild key", err)
	}
	logger.Info("registered enhanced api key for guild")
	_, err = channel.Send(ctx, chat.Reply{Embed: &chat.Embed{
		Title:       "Success",
		Description: "Enhanced API key registered. The shared daily quota no longer applies to this server.",
	}})
	return err
}

// fail reports an error to the channel, applying the command deletion
// policy for error classes that warrant it.
func (b *Bot) fail(ctx context.Context, logger *slog.Logger, channel chat.Channel, command *chat.Message, cause error) error {
	logger.Warn("lookup failed", logging.Error(cause))
	if services.DeletesCommandMessage(cause) {
		if err := channel.Delete(ctx, command.ID); err != nil {
			logger.Warn("failed to remove command message", logging.Error(err))
		}
	}
	if _, err := channel.ReplyTo(ctx, command.ID, chat.Reply{Embed: b.renderer.Error(cause)}); err != nil {
		return services.Wrap(nil, component, "sauce", "send error response", err)
	}
	return nil
}

// PurgeOnce drops expired cache entries immediately, outside the
// scheduler. The CLI uses it for manual maintenance.
func (b *Bot) PurgeOnce(ctx context.Context) (int64, error) {
	return b.store.CachePurge(ctx, time.Now().Add(-b.cfg.CacheTTL()))
}

// Package resolver turns a lookup command into the image URL to
// search, walking the fallback chain: command attachments, explicit
// URL argument, replied-to message attachments, then recent channel
// history. Multiple candidate attachments are disambiguated with a
// keycap reaction prompt.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"saucebot/internal/chat"
	"saucebot/internal/logging"
	"saucebot/internal/services"
)

const component = "resolver"

// imageLinkRe matches a message that is nothing but a direct image link.
var imageLinkRe = regexp.MustCompile(`^https?://\S+\.(jpg|png|jpeg|webp)$`)

const (
	defaultSelectionTimeout = 60 * time.Second
	defaultHistoryLimit     = 50
	maxSelectable           = 10
)

// Resolution describes where the search subject came from.
type Resolution struct {
	URL string

	// FromCommand is set when the image arrived with the command
	// itself, as an argument or an attachment.
	FromCommand bool

	// FromReply is set when the image came from a replied-to message.
	FromReply bool
}

// Resolver resolves lookup commands to image URLs.
type Resolver struct {
	broker           *chat.ReactionBroker
	logger           *slog.Logger
	selectionTimeout time.Duration
	historyLimit     int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSelectionTimeout overrides how long a disambiguation prompt waits.
func WithSelectionTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.selectionTimeout = timeout
		}
	}
}

// WithHistoryLimit overrides how many messages the history scan reads.
func WithHistoryLimit(limit int) Option {
	return func(r *Resolver) {
		if limit > 0 {
			r.historyLimit = limit
		}
	}
}

// New creates a Resolver publishing disambiguation prompts through the
// supplied broker.
func New(broker *chat.ReactionBroker, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	resolver := &Resolver{
		broker:           broker,
		logger:           logging.NewComponentLogger(logger, component),
		selectionTimeout: defaultSelectionTimeout,
		historyLimit:     defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver
}

// Resolve finds the image URL a command refers to. It returns
// ErrNoImage when the whole chain comes up empty, ErrInvalidImage when
// an explicit URL is malformed, and ErrSelectionTimedOut when a
// disambiguation prompt expires.
func (r *Resolver) Resolve(ctx context.Context, channel chat.Channel, command *chat.Message, explicitURL string) (*Resolution, error) {
	// Attachments on the invoking message win over an explicit URL
	// argument when both are present.
	if images := command.ImageAttachments(); len(images) > 0 {
		attachment, err := r.selectAttachment(ctx, channel, command, images)
		if err != nil {
			return nil, err
		}
		return &Resolution{URL: attachment.ImageURL(), FromCommand: true}, nil
	}

	if explicitURL != "" {
		if !validURL(explicitURL) {
			return nil, services.Wrap(services.ErrInvalidImage, component, "resolve",
				fmt.Sprintf("not a usable image url: %s", explicitURL), nil)
		}
		return &Resolution{URL: explicitURL, FromCommand: true}, nil
	}

	if command.ReferenceID != "" {
		return r.resolveFromReference(ctx, channel, command)
	}

	return r.resolveFromHistory(ctx, channel, command)
}

// resolveFromReference uses the replied-to message. A reply that holds
// no images fails immediately rather than falling through to history.
func (r *Resolver) resolveFromReference(ctx context.Context, channel chat.Channel, command *chat.Message) (*Resolution, error) {
	referenced, err := channel.Message(ctx, command.ReferenceID)
	if err != nil {
		return nil, services.Wrap(nil, component, "resolve", "fetch referenced message", err)
	}
	images := referenced.ImageAttachments()
	if len(images) == 0 {
		return nil, services.Wrap(services.ErrNoImage, component, "resolve",
			"replied-to message has no images", nil)
	}
	attachment, err := r.selectAttachment(ctx, channel, command, images)
	if err != nil {
		return nil, err
	}
	return &Resolution{URL: attachment.ImageURL(), FromReply: true}, nil
}

// resolveFromHistory scans recent channel messages, newest first, for
// an attachment or a bare image link.
func (r *Resolver) resolveFromHistory(ctx context.Context, channel chat.Channel, command *chat.Message) (*Resolution, error) {
	history, err := channel.History(ctx, r.historyLimit)
	if err != nil {
		return nil, services.Wrap(nil, component, "resolve", "read channel history", err)
	}
	for i := range history {
		message := &history[i]
		if message.ID == command.ID {
			continue
		}
		if images := message.ImageAttachments(); len(images) > 0 {
			attachment, err := r.selectAttachment(ctx, channel, command, images)
			if err != nil {
				return nil, err
			}
			r.logger.Info("attachment found in channel history",
				logging.String(logging.FieldChannelID, channel.ID()),
				logging.String(logging.FieldURL, attachment.ImageURL()))
			return &Resolution{URL: attachment.ImageURL()}, nil
		}
		if imageLinkRe.MatchString(message.Content) {
			r.logger.Debug("image link found in channel history",
				logging.String(logging.FieldChannelID, channel.ID()),
				logging.String(logging.FieldURL, message.Content))
			return &Resolution{URL: message.Content}, nil
		}
	}
	return nil, services.Wrap(services.ErrNoImage, component, "resolve", "no recent images in channel", nil)
}

// selectAttachment asks the command author to pick one attachment via
// keycap reactions. A single candidate short-circuits. On timeout both
// the prompt and the command message are removed.
func (r *Resolver) selectAttachment(ctx context.Context, channel chat.Channel, command *chat.Message, images []chat.Attachment) (chat.Attachment, error) {
	if len(images) == 1 {
		return images[0], nil
	}
	count := len(images)
	if count > maxSelectable {
		count = maxSelectable
	}

	promptID, err := channel.Send(ctx, chat.Reply{Text: "Multiple images found. React to pick the one to search."})
	if err != nil {
		return chat.Attachment{}, services.Wrap(nil, component, "select", "send selection prompt", err)
	}
	for n := 1; n <= count; n++ {
		if err := channel.AddReaction(ctx, promptID, chat.KeycapEmoji(n)); err != nil {
			return chat.Attachment{}, services.Wrap(nil, component, "select", "seed prompt reactions", err)
		}
	}

	reaction, err := r.broker.Await(ctx, r.selectionTimeout, func(reaction chat.Reaction) bool {
		if reaction.MessageID != promptID || reaction.UserID != command.AuthorID {
			return false
		}
		n := chat.KeycapToInt(reaction.Emoji)
		return n >= 1 && n <= count
	})
	if err != nil {
		if cleanupErr := channel.Delete(ctx, promptID); cleanupErr != nil {
			r.logger.Warn("failed to remove selection prompt", logging.Error(cleanupErr))
		}
		if cleanupErr := channel.Delete(ctx, command.ID); cleanupErr != nil {
			r.logger.Warn("failed to remove command message", logging.Error(cleanupErr))
		}
		return chat.Attachment{}, err
	}

	if err := channel.Delete(ctx, promptID); err != nil {
		r.logger.Warn("failed to remove selection prompt", logging.Error(err))
	}
	return images[chat.KeycapToInt(reaction.Emoji)-1], nil
}

func validURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

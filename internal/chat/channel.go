package chat

import "context"

// Channel is the surface a gateway adapter exposes for one channel.
type Channel interface {
	// ID returns the channel identifier.
	ID() string

	// NSFW reports whether the channel allows adult content.
	NSFW() bool

	// Send posts a new message and returns its ID.
	Send(ctx context.Context, reply Reply) (string, error)

	// ReplyTo posts a message referencing an existing one.
	ReplyTo(ctx context.Context, messageID string, reply Reply) (string, error)

	// Delete removes a message. Deleting an already removed message is
	// not an error.
	Delete(ctx context.Context, messageID string) error

	// AddReaction attaches an emoji reaction to a message.
	AddReaction(ctx context.Context, messageID, emoji string) error

	// History returns up to limit recent messages, newest first.
	History(ctx context.Context, limit int) ([]Message, error)

	// Message fetches a single message by ID.
	Message(ctx context.Context, messageID string) (*Message, error)
}

package testsupport

import (
	"context"
	"fmt"
	"sync"

	"saucebot/internal/chat"
)

// FakeChannel is an in-memory chat.Channel for tests.
type FakeChannel struct {
	mu sync.Mutex

	ChannelID string
	IsNSFW    bool

	// HistoryMessages is returned by History, newest first.
	HistoryMessages []chat.Message

	// Known holds messages retrievable by ID.
	Known map[string]*chat.Message

	SentReplies []chat.Reply
	SentIDs     []string
	Deleted     []string
	Reactions   map[string][]string

	// AfterAddReaction runs after each AddReaction call, outside the
	// lock. Tests use it to publish a user reaction once the prompt is
	// fully seeded.
	AfterAddReaction func(messageID, emoji string)

	nextID int
}

var _ chat.Channel = (*FakeChannel)(nil)

// NewFakeChannel creates an empty fake channel.
func NewFakeChannel(id string) *FakeChannel {
	return &FakeChannel{
		ChannelID: id,
		Known:     make(map[string]*chat.Message),
		Reactions: make(map[string][]string),
	}
}

func (c *FakeChannel) ID() string { return c.ChannelID }

func (c *FakeChannel) NSFW() bool { return c.IsNSFW }

func (c *FakeChannel) Send(ctx context.Context, reply chat.Reply) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := fmt.Sprintf("sent-%d", c.nextID)
	c.SentReplies = append(c.SentReplies, reply)
	c.SentIDs = append(c.SentIDs, id)
	return id, nil
}

func (c *FakeChannel) ReplyTo(ctx context.Context, messageID string, reply chat.Reply) (string, error) {
	return c.Send(ctx, reply)
}

func (c *FakeChannel) Delete(ctx context.Context, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deleted = append(c.Deleted, messageID)
	return nil
}

func (c *FakeChannel) AddReaction(ctx context.Context, messageID, emoji string) error {
	c.mu.Lock()
	c.Reactions[messageID] = append(c.Reactions[messageID], emoji)
	hook := c.AfterAddReaction
	c.mu.Unlock()
	if hook != nil {
		hook(messageID, emoji)
	}
	return nil
}

func (c *FakeChannel) History(ctx context.Context, limit int) ([]chat.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit > len(c.HistoryMessages) {
		limit = len(c.HistoryMessages)
	}
	out := make([]chat.Message, limit)
	copy(out, c.HistoryMessages[:limit])
	return out, nil
}

func (c *FakeChannel) Message(ctx context.Context, messageID string) (*chat.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	message, ok := c.Known[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s not found", messageID)
	}
	clone := *message
	return &clone, nil
}

// HasDeleted reports whether Delete was called for messageID.
func (c *FakeChannel) HasDeleted(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.Deleted {
		if id == messageID {
			return true
		}
	}
	return false
}

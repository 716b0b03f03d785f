package chat

import (
	"context"
	"sync"
	"time"

	"saucebot/internal/services"
)

// Reaction is an emoji added to a message by a user.
type Reaction struct {
	MessageID string
	UserID    string
	Emoji     string
}

// ReactionBroker fans gateway reaction events out to waiting commands.
// The gateway adapter publishes every reaction it sees; commands await
// the first one matching their predicate.
type ReactionBroker struct {
	mu   sync.Mutex
	subs map[int]chan Reaction
	next int
}

// NewReactionBroker creates an empty broker.
func NewReactionBroker() *ReactionBroker {
	return &ReactionBroker{subs: make(map[int]chan Reaction)}
}

// Publish delivers a reaction to every active waiter. Slow waiters
// drop events rather than blocking the gateway.
func (b *ReactionBroker) Publish(reaction Reaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub <- reaction:
		default:
		}
	}
}

func (b *ReactionBroker) subscribe() (int, chan Reaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	sub := make(chan Reaction, 16)
	b.subs[id] = sub
	return id, sub
}

func (b *ReactionBroker) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Await blocks until a reaction matching the predicate arrives, the
// timeout elapses, or the context is cancelled. A timeout returns
// ErrSelectionTimedOut.
func (b *ReactionBroker) Await(ctx context.Context, timeout time.Duration, match func(Reaction) bool) (Reaction, error) {
	id, sub := b.subscribe()
	defer b.unsubscribe(id)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case reaction := <-sub:
			if match(reaction) {
				return reaction, nil
			}
		case <-timer.C:
			return Reaction{}, services.Wrap(services.ErrSelectionTimedOut, "chat", "await reaction",
				"no matching reaction before the deadline", nil)
		case <-ctx.Done():
			return Reaction{}, ctx.Err()
		}
	}
}

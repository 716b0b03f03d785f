package store

import (
	"time"

	"saucebot/internal/sauce"
)

// CacheEntry is a persisted lookup result keyed by the exact image URL.
type CacheEntry struct {
	URL       string
	Kind      sauce.Kind
	Header    []byte
	Payload   []byte
	CreatedAt time.Time
}

// Result reconstructs the typed result from the stored parts.
func (e *CacheEntry) Result() (*sauce.Result, error) {
	return sauce.Decode(e.Kind, e.Header, e.Payload)
}

// QueryLogEntry records one lookup attempt. The log is append-only; quota
// checks are count queries over it.
type QueryLogEntry struct {
	ID        int64
	UserID    string
	GuildID   string
	URL       string
	CreatedAt time.Time
}

// GuildAPIKey is a per-guild enhanced credential.
type GuildAPIKey struct {
	GuildID      string
	APIKey       string
	RegisteredBy string
	CreatedAt    time.Time
}

// CacheStats aggregates cache state for diagnostics.
type CacheStats struct {
	Entries     int
	Queries     int
	GuildKeys   int
	OldestEntry time.Time
	NewestEntry time.Time
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"saucebot/internal/config"
	"saucebot/internal/sauce"
)

// timestampLayout is RFC 3339 with a fixed-width fractional second so
// that lexicographic comparison of stored values matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages saucebot persistence backed by SQLite: the lookup result
// cache, the append-only query log, and per-guild API keys.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// CacheFetch returns the cached entry for the exact URL, or nil when absent.
func (s *Store) CacheFetch(ctx context.Context, url string) (*CacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, result_kind, header_json, payload_json, created_at FROM sauce_cache WHERE url = ?`,
		url,
	)
	var (
		entry      CacheEntry
		kind       string
		header     string
		payload    string
		createdRaw string
	)
	err := row.Scan(&entry.URL, &kind, &header, &payload, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch cache entry: %w", err)
	}
	entry.Kind = sauce.Kind(kind)
	entry.Header = []byte(header)
	entry.Payload = []byte(payload)
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return &entry, nil
}

// CacheStore inserts or overwrites the cached result for a URL. Last write
// wins per key.
func (s *Store) CacheStore(ctx context.Context, url string, result *sauce.Result) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("cache url must not be empty")
	}
	kind, header, payload, err := sauce.Encode(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sauce_cache (url, result_kind, header_json, payload_json, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(url) DO UPDATE SET
             result_kind = excluded.result_kind,
             header_json = excluded.header_json,
             payload_json = excluded.payload_json,
             created_at = excluded.created_at`,
		url,
		string(kind),
		string(header),
		string(payload),
		time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// CachePurge deletes entries created before the cutoff and reports how many
// rows were removed.
func (s *Store) CachePurge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sauce_cache WHERE created_at < ?`,
		cutoff.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

// LogQuery appends one lookup attempt to the query log.
func (s *Store) LogQuery(ctx context.Context, userID, guildID, url string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("query log user id must not be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sauce_queries (user_id, guild_id, url, created_at) VALUES (?, ?, ?, ?)`,
		userID,
		guildID,
		url,
		time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("log query: %w", err)
	}
	return nil
}

// UserQueryCount counts log entries for a user since the cutoff.
func (s *Store) UserQueryCount(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sauce_queries WHERE user_id = ? AND created_at >= ?`,
		userID,
		since.UTC().Format(timestampLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count user queries: %w", err)
	}
	return count, nil
}

// GuildQueryCount counts log entries for a guild since the cutoff.
func (s *Store) GuildQueryCount(ctx context.Context, guildID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sauce_queries WHERE guild_id = ? AND created_at >= ?`,
		guildID,
		since.UTC().Format(timestampLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count guild queries: %w", err)
	}
	return count, nil
}

// GuildKey returns the registered API key for a guild, or nil when none is
// on file.
func (s *Store) GuildKey(ctx context.Context, guildID string) (*GuildAPIKey, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT guild_id, api_key, registered_by, created_at FROM guild_api_keys WHERE guild_id = ?`,
		guildID,
	)
	var (
		key          GuildAPIKey
		registeredBy sql.NullString
		createdRaw   string
	)
	err := row.Scan(&key.GuildID, &key.APIKey, &registeredBy, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch guild key: %w", err)
	}
	key.RegisteredBy = registeredBy.String
	if created, err := parseTimeString(createdRaw); err == nil {
		key.CreatedAt = created
	}
	return &key, nil
}

// RegisterGuildKey stores a verified key for a guild, replacing any prior key.
func (s *Store) RegisterGuildKey(ctx context.Context, guildID, apiKey, registeredBy string) error {
	if strings.TrimSpace(guildID) == "" {
		return errors.New("guild id must not be empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("api key must not be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guild_api_keys (guild_id, api_key, registered_by, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(guild_id) DO UPDATE SET
             api_key = excluded.api_key,
             registered_by = excluded.registered_by,
             created_at = excluded.created_at`,
		guildID,
		apiKey,
		nullableString(registeredBy),
		time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("register guild key: %w", err)
	}
	return nil
}

// Stats aggregates row counts and cache age for diagnostic output.
func (s *Store) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sauce_cache`).Scan(&stats.Entries); err != nil {
		return stats, fmt.Errorf("count cache entries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sauce_queries`).Scan(&stats.Queries); err != nil {
		return stats, fmt.Errorf("count queries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM guild_api_keys`).Scan(&stats.GuildKeys); err != nil {
		return stats, fmt.Errorf("count guild keys: %w", err)
	}
	if stats.Entries > 0 {
		var oldestRaw, newestRaw string
		err := s.db.QueryRowContext(ctx,
			`SELECT MIN(created_at), MAX(created_at) FROM sauce_cache`,
		).Scan(&oldestRaw, &newestRaw)
		if err != nil {
			return stats, fmt.Errorf("cache age bounds: %w", err)
		}
		if oldest, err := parseTimeString(oldestRaw); err == nil {
			stats.OldestEntry = oldest
		}
		if newest, err := parseTimeString(newestRaw); err == nil {
			stats.NewestEntry = newest
		}
	}
	return stats, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// Package store persists saucebot state in SQLite: the lookup result cache,
// the append-only query log, and per-guild API keys.
//
// The cache is keyed by exact image URL with last-write-wins semantics and a
// TTL enforced by CachePurge; a racing read may briefly serve a just-expired
// entry, which is acceptable. The query log is never mutated by this package
// beyond appends; quota enforcement is a count query over it. Schema changes
// bump schemaVersion in schema.go; the data is transient enough that users
// recreate the database rather than migrate.
package store

// Command saucebot is the operator CLI for the sauce lookup service.
// It runs one-off lookups, manages per-guild API credentials, and
// inspects the cache and query log that back the bot's rate limits.
package main

// Package notifications delivers operational alerts via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Bot components emit lifecycle, quota, and error events
// without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; all bot code
// depends only on the simple Service interface.
package notifications

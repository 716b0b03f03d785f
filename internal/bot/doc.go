// Package bot orchestrates the lookup pipeline behind the chat
// commands: image resolution, quota checks, the cached SauceNAO
// search, preview reconciliation, and response rendering. It also owns
// the process lifecycle: the single-instance lock and the periodic
// cache purge.
package bot

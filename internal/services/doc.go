// Package services defines the shared error taxonomy consumed across the
// command pipeline and external integrations.
//
// Every failure a sauce lookup can surface maps to one exported sentinel, and
// Wrap attaches component context without losing the marker. The policy
// helper DeletesCommandMessage centralizes how the bot reacts to each class
// so resolver, limiter, and client code never encode presentation decisions
// themselves.
package services

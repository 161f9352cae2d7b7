// Package notifications delivers wizard events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. Event
// groups honor the per-group config toggles, so a user can keep publish
// notices while silencing validation chatter.
//
// Callers treat delivery as best effort: a failed send is logged by the
// caller and never interrupts wizard work.
package notifications

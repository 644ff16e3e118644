package services

// Broadcaster publishes best-effort notifications to display views. A nil
// Broadcaster is valid and degrades to no-ops (consumers fall back to
// polling), so an unavailable channel never surfaces as an error.
type Broadcaster interface {
	// BroadcastState signals that the document changed and consumers should
	// re-read it in full.
	BroadcastState()
	// BroadcastTick relays a lightweight timer overlay for the session.
	BroadcastTick(sessionID string, remainingMS int64, paused bool)
}

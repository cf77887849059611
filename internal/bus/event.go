package bus

import "time"

// Notification kinds published by the session coordinator.
const (
	KindPresenceChanged = "presence.changed"
	KindChatChanged     = "chat.changed"
	KindCounterChanged  = "counter.changed"
	KindStatusChanged   = "session.status_changed"
)

// Event is a local notification that some replicated state changed.
// Payloads are informational; readers re-read state from the coordinator.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

package presence

import (
	"time"

	"github.com/matheus3301/huddle/internal/protocol"
)

// Liveness is the recency indicator shown next to a roster entry. It is
// derived from LastActivityTs on every read and never stored.
type Liveness string

const (
	Online Liveness = "online"
	Idle   Liveness = "idle"
)

// LivenessOf returns Online when p was active within onlineWithin of now.
func LivenessOf(p protocol.Peer, now time.Time, onlineWithin time.Duration) Liveness {
	if now.UnixMilli()-p.LastActivityTs < onlineWithin.Milliseconds() {
		return Online
	}
	return Idle
}

// IsStale reports whether p has been silent for longer than staleAfter and
// is due for eviction on the next sweep.
func IsStale(p protocol.Peer, now time.Time, staleAfter time.Duration) bool {
	return now.UnixMilli()-p.LastActivityTs > staleAfter.Milliseconds()
}

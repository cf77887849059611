package api

import (
	"encoding/json"
	"math"
	"time"

	"github.com/matheus3301/huddle/internal/protocol"
)

type GetStatusRequest struct{}

type StatusResponse struct {
	Session  string        `json:"session"`
	Channel  string        `json:"channel"`
	State    string        `json:"state"`
	Self     protocol.Peer `json:"self"`
	UptimeMs int64         `json:"uptimeMs"`
}

type ListRosterRequest struct{}

// RosterEntry is a roster row plus the liveness derived at read time.
type RosterEntry struct {
	protocol.Peer
	Online bool `json:"online"`
}

type RosterResponse struct {
	Peers []RosterEntry `json:"peers"`
}

type ListMessagesRequest struct{}

type MessagesResponse struct {
	Messages []protocol.ChatMessage `json:"messages"`
}

type GetCounterRequest struct{}

type CounterResponse struct {
	Value       int64          `json:"value"`
	LastWriter  *protocol.Peer `json:"lastWriter,omitempty"`
	LastWriteTs int64          `json:"lastWriteTs,omitempty"`
}

// MaxExpiresInMs is the longest expiry that still fits in a time.Duration.
const MaxExpiresInMs = math.MaxInt64 / int64(time.Millisecond)

type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
	// ExpiresInMs of zero or less means the message never expires. The bound
	// is MaxExpiresInMs.
	ExpiresInMs int64 `json:"expiresInMs,omitempty" validate:"lte=9223372036854"`
}

type SendMessageResponse struct {
	Message protocol.ChatMessage `json:"message"`
}

type DeleteMessageRequest struct {
	MessageID string `json:"messageId" validate:"required"`
}

type UpdateCounterRequest struct {
	Value int64 `json:"value"`
}

type MarkTypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

type Empty struct{}

type WatchRequest struct {
	// Prefixes filters event kinds; empty means every kind.
	Prefixes []string `json:"prefixes,omitempty"`
}

type WatchEvent struct {
	EventID string          `json:"eventId"`
	Kind    string          `json:"kind"`
	Ts      int64           `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

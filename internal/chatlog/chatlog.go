package chatlog

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/samber/lo"
)

// Log is one peer's replica of the chat. Messages are keyed by id, so a
// message received any number of times is stored once. Deletion is a
// one-way flag; removal only happens through expiry.
//
// Log does not check who is deleting what. Authorship of local deletes is
// enforced by the caller.
type Log struct {
	byID  map[string]protocol.ChatMessage
	newID func() string
}

// New creates an empty log that assigns uuid message ids.
func New() *Log {
	return NewWithIDs(uuid.NewString)
}

// NewWithIDs creates an empty log with a custom id generator.
func NewWithIDs(newID func() string) *Log {
	return &Log{
		byID:  make(map[string]protocol.ChatMessage),
		newID: newID,
	}
}

// Append authors a new message, stores it and returns it for local echo.
// A ttl of zero or less means the message never expires.
func (l *Log) Append(text string, author protocol.Peer, now time.Time, ttl time.Duration) protocol.ChatMessage {
	msg := protocol.ChatMessage{
		ID:   l.newID(),
		Text: text,
		By:   author,
		Ts:   now.UnixMilli(),
	}
	if ttl > 0 {
		msg.ExpiresAt = now.Add(ttl).UnixMilli()
	}
	l.byID[msg.ID] = msg
	return msg
}

// ReceiveCreate stores a remote message unless one with the same id exists.
// It reports whether the message was inserted.
func (l *Log) ReceiveCreate(msg protocol.ChatMessage) bool {
	if msg.ID == "" {
		return false
	}
	if _, ok := l.byID[msg.ID]; ok {
		return false
	}
	l.byID[msg.ID] = msg
	return true
}

// MarkDeleted flags the message as deleted by deleter at ts. Unknown and
// already deleted ids are left alone. It reports whether anything changed.
func (l *Log) MarkDeleted(id string, deleter protocol.Peer, ts int64) bool {
	msg, ok := l.byID[id]
	if !ok || msg.IsDeleted {
		return false
	}
	msg.IsDeleted = true
	msg.DeletedBy = &deleter
	msg.DeletedTs = ts
	l.byID[id] = msg
	return true
}

// ExpireSweep drops every message whose expiry is at or before now,
// deleted or not, and returns the dropped ids.
func (l *Log) ExpireSweep(now time.Time) []string {
	nowMs := now.UnixMilli()
	var expired []string
	for id, msg := range l.byID {
		if msg.Expired(nowMs) {
			delete(l.byID, id)
			expired = append(expired, id)
		}
	}
	slices.Sort(expired)
	return expired
}

// Get returns the stored message with the given id.
func (l *Log) Get(id string) (protocol.ChatMessage, bool) {
	msg, ok := l.byID[id]
	return msg, ok
}

// Len returns the number of stored messages, including expired ones not yet
// swept.
func (l *Log) Len() int {
	return len(l.byID)
}

// Visible returns the unexpired messages ordered by creation time, with the
// message id breaking ties.
func (l *Log) Visible(now time.Time) []protocol.ChatMessage {
	nowMs := now.UnixMilli()
	msgs := lo.Filter(lo.Values(l.byID), func(m protocol.ChatMessage, _ int) bool {
		return !m.Expired(nowMs)
	})
	slices.SortFunc(msgs, func(a, b protocol.ChatMessage) int {
		if c := cmp.Compare(a.Ts, b.Ts); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return msgs
}

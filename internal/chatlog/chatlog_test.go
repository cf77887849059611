package chatlog

import (
	"fmt"
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/stretchr/testify/require"
)

var (
	t0    = time.UnixMilli(1_700_000_000_000)
	alice = protocol.Peer{ID: "alice", Name: "Alice"}
	bob   = protocol.Peer{ID: "bob", Name: "Bob"}
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func TestAppendReturnsStoredMessage(t *testing.T) {
	l := NewWithIDs(sequentialIDs())

	msg := l.Append("hi", alice, t0, 0)
	require.Equal(t, "m1", msg.ID)
	require.Equal(t, t0.UnixMilli(), msg.Ts)
	require.Zero(t, msg.ExpiresAt)
	require.Equal(t, "alice", msg.AuthorID())

	stored, ok := l.Get("m1")
	require.True(t, ok)
	require.Equal(t, msg, stored)
}

func TestAppendWithTTL(t *testing.T) {
	l := New()
	msg := l.Append("brief", alice, t0, 1500*time.Millisecond)
	require.Equal(t, t0.UnixMilli()+1500, msg.ExpiresAt)
	require.NotEmpty(t, msg.ID)
}

func TestReceiveCreateIsIdempotent(t *testing.T) {
	l := New()
	msg := protocol.ChatMessage{ID: "x", Text: "first", By: bob, Ts: 1}

	require.True(t, l.ReceiveCreate(msg))
	msg.Text = "second"
	require.False(t, l.ReceiveCreate(msg))

	require.Equal(t, 1, l.Len())
	stored, _ := l.Get("x")
	require.Equal(t, "first", stored.Text)
}

func TestReceiveCreateAfterLocalEcho(t *testing.T) {
	l := NewWithIDs(sequentialIDs())
	local := l.Append("mine", alice, t0, 0)

	require.False(t, l.ReceiveCreate(local))
	require.Len(t, l.Visible(t0), 1)
}

func TestMarkDeletedOnce(t *testing.T) {
	l := New()
	l.ReceiveCreate(protocol.ChatMessage{ID: "x", Text: "hi", By: alice, Ts: 1})

	require.True(t, l.MarkDeleted("x", alice, 10))
	require.False(t, l.MarkDeleted("x", bob, 20))

	msg, _ := l.Get("x")
	require.True(t, msg.IsDeleted)
	require.Equal(t, "alice", msg.DeletedBy.ID)
	require.Equal(t, int64(10), msg.DeletedTs)
	require.Equal(t, "hi", msg.Text)
}

func TestMarkDeletedUnknownIsNoop(t *testing.T) {
	l := New()
	require.False(t, l.MarkDeleted("ghost", alice, 1))
	require.Zero(t, l.Len())

	// A message arriving after its delete is not retroactively deleted.
	l.ReceiveCreate(protocol.ChatMessage{ID: "ghost", Text: "late", By: alice, Ts: 2})
	msg, _ := l.Get("ghost")
	require.False(t, msg.IsDeleted)
}

func TestMarkDeletedDoesNotCheckAuthor(t *testing.T) {
	l := New()
	l.ReceiveCreate(protocol.ChatMessage{ID: "x", Text: "hi", By: alice, Ts: 1})

	require.True(t, l.MarkDeleted("x", bob, 5))
	msg, _ := l.Get("x")
	require.Equal(t, "bob", msg.DeletedBy.ID)
}

func TestExpiryBoundary(t *testing.T) {
	l := New()
	msg := l.Append("soon gone", alice, t0, time.Second)
	created := time.UnixMilli(msg.Ts)

	require.Empty(t, l.ExpireSweep(created.Add(999*time.Millisecond)))
	require.Len(t, l.Visible(created.Add(999*time.Millisecond)), 1)

	require.Equal(t, []string{msg.ID}, l.ExpireSweep(created.Add(1001*time.Millisecond)))
	require.Empty(t, l.Visible(created.Add(1001*time.Millisecond)))
	require.Zero(t, l.Len())
}

func TestExpireSweepRemovesDeletedMessages(t *testing.T) {
	l := New()
	msg := l.Append("x", alice, t0, time.Second)
	l.MarkDeleted(msg.ID, alice, t0.UnixMilli())

	l.ExpireSweep(t0.Add(time.Second))
	_, ok := l.Get(msg.ID)
	require.False(t, ok)
}

func TestVisibleKeepsMessagesWithoutExpiry(t *testing.T) {
	l := New()
	l.Append("forever", alice, t0, 0)
	l.ExpireSweep(t0.Add(24 * time.Hour))
	require.Len(t, l.Visible(t0.Add(24*time.Hour)), 1)
}

func TestVisibleOrdersByCreationThenID(t *testing.T) {
	l := New()
	for _, m := range []protocol.ChatMessage{
		{ID: "c", Ts: 30, By: bob},
		{ID: "b", Ts: 10, By: bob},
		{ID: "z", Ts: 20, By: alice},
		{ID: "a", Ts: 20, By: bob},
	} {
		l.ReceiveCreate(m)
	}

	var ids []string
	for _, m := range l.Visible(t0) {
		ids = append(ids, m.ID)
	}
	require.Equal(t, []string{"b", "a", "z", "c"}, ids)
}

package counter

import (
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/stretchr/testify/require"
)

func TestZeroValue(t *testing.T) {
	c := New()
	s := c.Current()
	require.Zero(t, s.Value)
	require.Nil(t, s.LastWriter)
	require.Zero(t, s.LastWriteTs)
}

func TestSetLocal(t *testing.T) {
	c := New()
	now := time.UnixMilli(5000)
	self := protocol.Peer{ID: "me", Name: "Me"}

	s := c.SetLocal(7, self, now)
	require.Equal(t, int64(7), s.Value)
	require.Equal(t, "me", s.LastWriter.ID)
	require.Equal(t, int64(5000), s.LastWriteTs)
	require.Equal(t, s, c.Current())
}

// A remote update applied after a local one wins even when it is older.
func TestRemoteArrivalBeatsNewerLocalWrite(t *testing.T) {
	c := New()
	c.SetLocal(5, protocol.Peer{ID: "a"}, time.UnixMilli(2000))

	s := c.ApplyRemote(3, protocol.Peer{ID: "b"}, 1000)
	require.Equal(t, int64(3), s.Value)
	require.Equal(t, "b", s.LastWriter.ID)
	require.Equal(t, int64(1000), s.LastWriteTs)
}

func TestLastAppliedRemoteWins(t *testing.T) {
	c := New()
	c.ApplyRemote(2, protocol.Peer{ID: "b"}, 20)
	c.ApplyRemote(1, protocol.Peer{ID: "c"}, 10)

	require.Equal(t, int64(1), c.Current().Value)
	require.Equal(t, "c", c.Current().LastWriter.ID)
}

func TestWriterIsCopied(t *testing.T) {
	c := New()
	writer := protocol.Peer{ID: "b", Name: "Bob"}
	c.ApplyRemote(1, writer, 1)

	writer.Name = "changed"
	require.Equal(t, "Bob", c.Current().LastWriter.Name)
}

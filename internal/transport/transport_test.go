package transport

import (
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubBroadcastReachesOthersOnly(t *testing.T) {
	hub := NewHub()
	a := hub.Join(10)
	b := hub.Join(10)
	c := hub.Join(10)

	require.NoError(t, a.Broadcast("join", []byte(`{"user":{"id":"a"}}`)))

	require.Empty(t, a.Drain())
	for _, ep := range []*Endpoint{b, c} {
		got := ep.Drain()
		require.Len(t, got, 1)
		require.Equal(t, "join", got[0].Topic)
		require.JSONEq(t, `{"user":{"id":"a"}}`, string(got[0].Payload))
	}
}

func TestHubDrainIsArrivalOrderedAndConsuming(t *testing.T) {
	hub := NewHub()
	a := hub.Join(10)
	b := hub.Join(10)

	require.NoError(t, a.Broadcast("one", []byte(`1`)))
	require.NoError(t, a.Broadcast("two", []byte(`2`)))

	select {
	case <-b.Ready():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ready signal")
	}

	got := b.Drain()
	require.Len(t, got, 2)
	require.Equal(t, "one", got[0].Topic)
	require.Equal(t, "two", got[1].Topic)
	require.Less(t, got[0].Seq, got[1].Seq)
	require.Empty(t, b.Drain())
}

func TestHubDropsOnFullQueue(t *testing.T) {
	hub := NewHub()
	a := hub.Join(10)
	b := hub.Join(1)

	require.NoError(t, a.Broadcast("one", []byte(`1`)))
	require.NoError(t, a.Broadcast("two", []byte(`2`)))

	got := b.Drain()
	require.Len(t, got, 1)
	require.Equal(t, "one", got[0].Topic)
	require.Equal(t, uint64(1), b.Dropped())
}

func TestHubClosedEndpoint(t *testing.T) {
	hub := NewHub()
	a := hub.Join(10)
	b := hub.Join(10)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	require.Equal(t, 1, hub.Size())

	require.NoError(t, a.Broadcast("one", []byte(`1`)))
	require.Empty(t, b.Drain())
	require.ErrorIs(t, b.Broadcast("x", []byte(`{}`)), ErrClosed)
}

func shortTempDir(t *testing.T) string {
	t.Helper()
	// Unix socket paths are limited to ~104 bytes on some platforms.
	dir, err := os.MkdirTemp("/tmp", "huddle-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestUnixgramExchange(t *testing.T) {
	dir := shortTempDir(t)
	a, err := ListenUnixgram(dir, 16, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	b, err := ListenUnixgram(dir, 16, nil)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	require.NoError(t, a.Broadcast("typing", []byte(`{"userId":"a","isTyping":true,"ts":1}`)))

	select {
	case <-b.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for datagram")
	}
	got := b.Drain()
	require.Len(t, got, 1)
	require.Equal(t, "typing", got[0].Topic)
	require.JSONEq(t, `{"userId":"a","isTyping":true,"ts":1}`, string(got[0].Payload))

	// The sender never hears itself.
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, a.Drain())
}

func TestUnixgramRemovesStaleSocket(t *testing.T) {
	dir := shortTempDir(t)
	a, err := ListenUnixgram(dir, 16, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	// Closing a datagram socket leaves its file behind, like a crashed peer.
	stale := filepath.Join(dir, "deadbeef.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: stale, Net: "unixgram"})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	_, err = os.Stat(stale)
	require.NoError(t, err)

	require.NoError(t, a.Broadcast("heartbeat", []byte(`{"user":{"id":"a"}}`)))

	_, err = os.Stat(stale)
	require.True(t, os.IsNotExist(err), "stale socket should be removed, stat err = %v", err)
}

func TestUnixgramRejectsOversizedPayload(t *testing.T) {
	dir := shortTempDir(t)
	a, err := ListenUnixgram(dir, 16, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	big := make([]byte, MaxDatagram)
	for i := range big {
		big[i] = '1'
	}
	require.Error(t, a.Broadcast("chat:message", big))
}

func TestUnixgramCloseRemovesSocket(t *testing.T) {
	dir := shortTempDir(t)
	a, err := ListenUnixgram(dir, 16, nil)
	require.NoError(t, err)

	path := a.Path()
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.ErrorIs(t, a.Broadcast("x", []byte(`{}`)), ErrClosed)
}

func TestUnixgramReadErrorsBackOff(t *testing.T) {
	u := &Unixgram{
		inbox:  newInbox(4),
		logger: zap.NewNop(),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	var reads atomic.Int32
	go u.receive(func([]byte) (int, error) {
		reads.Add(1)
		return 0, syscall.EIO
	})

	time.Sleep(200 * time.Millisecond)
	close(u.quit)
	<-u.done

	// A doubling wait from 10ms leaves room for a handful of reads, not a spin.
	require.Less(t, reads.Load(), int32(20))
	require.Greater(t, reads.Load(), int32(1))
}

func TestReadBackoffIsCappedAndNeverStops(t *testing.T) {
	b := newReadBackoff()
	for range 30 {
		wait := b.NextBackOff()
		require.Positive(t, wait)
		require.LessOrEqual(t, wait, time.Second+time.Second/2)
	}
	b.Reset()
	require.Less(t, b.NextBackOff(), 20*time.Millisecond)
}

package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxDatagram is the largest encoded envelope Unixgram will send.
	MaxDatagram = 64 * 1024

	socketSuffix = ".sock"
	writeTimeout = 50 * time.Millisecond
)

// Unixgram is a machine-local broadcast channel. Every peer of a channel
// binds a datagram socket in the channel directory; a broadcast is one
// datagram to each other socket found there.
type Unixgram struct {
	dir    string
	path   string
	conn   *net.UnixConn
	inbox  *inbox
	logger *zap.Logger

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
	quit    chan struct{}
	done    chan struct{}
}

var _ Transport = (*Unixgram)(nil)

// ListenUnixgram joins the channel rooted at dir.
func ListenUnixgram(dir string, queueSize int, logger *zap.Logger) (*Unixgram, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create channel dir: %w", err)
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "")[:16] + socketSuffix
	path := filepath.Join(dir, name)
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, fmt.Errorf("listen unixgram: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		_ = conn.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	u := &Unixgram{
		dir:    dir,
		path:   path,
		conn:   conn,
		inbox:  newInbox(queueSize),
		logger: logger,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go u.receive(func(buf []byte) (int, error) {
		n, _, err := conn.ReadFromUnix(buf)
		return n, err
	})
	logger.Info("joined broadcast channel", zap.String("dir", dir), zap.String("socket", name))
	return u, nil
}

// Path returns the socket this endpoint receives on.
func (u *Unixgram) Path() string {
	return u.path
}

func (u *Unixgram) Broadcast(topic string, payload []byte) error {
	data, err := json.Marshal(Envelope{Topic: topic, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if len(data) > MaxDatagram {
		return fmt.Errorf("envelope of %d bytes exceeds %d byte datagram limit", len(data), MaxDatagram)
	}

	peers, err := filepath.Glob(filepath.Join(u.dir, "*"+socketSuffix))
	if err != nil {
		return fmt.Errorf("list channel peers: %w", err)
	}

	u.writeMu.Lock()
	defer u.writeMu.Unlock()
	if u.isClosed() {
		return ErrClosed
	}
	for _, peer := range peers {
		if peer == u.path {
			continue
		}
		_ = u.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, err := u.conn.WriteToUnix(data, &net.UnixAddr{Name: peer, Net: "unixgram"})
		switch {
		case err == nil:
		case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, os.ErrNotExist):
			// Nobody is bound to it any more; the peer exited without cleanup.
			_ = os.Remove(peer)
			u.logger.Debug("removed stale peer socket", zap.String("socket", filepath.Base(peer)))
		default:
			u.logger.Debug("broadcast to peer dropped", zap.String("socket", filepath.Base(peer)), zap.Error(err))
		}
	}
	return nil
}

func (u *Unixgram) Drain() []Envelope {
	return u.inbox.drain()
}

func (u *Unixgram) Ready() <-chan struct{} {
	return u.inbox.ready
}

// Dropped returns how many arrivals were discarded on a full queue.
func (u *Unixgram) Dropped() uint64 {
	return u.inbox.droppedCount()
}

func (u *Unixgram) Close() error {
	u.closeMu.Lock()
	if u.closed {
		u.closeMu.Unlock()
		return nil
	}
	u.closed = true
	u.closeMu.Unlock()

	close(u.quit)
	err := u.conn.Close()
	<-u.done
	_ = os.Remove(u.path)
	return err
}

func (u *Unixgram) isClosed() bool {
	u.closeMu.Lock()
	defer u.closeMu.Unlock()
	return u.closed
}

// newReadBackoff paces retries after failed socket reads.
func newReadBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (u *Unixgram) receive(read func([]byte) (int, error)) {
	defer close(u.done)
	buf := make([]byte, MaxDatagram)
	retry := newReadBackoff()
	for {
		n, err := read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			wait := retry.NextBackOff()
			u.logger.Warn("unixgram read failed", zap.Error(err), zap.Duration("retry_in", wait))
			select {
			case <-time.After(wait):
			case <-u.quit:
				return
			}
			continue
		}
		retry.Reset()

		var env Envelope
		if err := json.Unmarshal(buf[:n], &env); err != nil || env.Topic == "" {
			u.logger.Debug("ignoring malformed datagram", zap.Int("bytes", n))
			continue
		}
		if !u.inbox.push(env.Topic, env.Payload) {
			u.logger.Debug("inbox full, dropping event", zap.String("topic", env.Topic))
		}
	}
}

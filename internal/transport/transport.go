package transport

import (
	"encoding/json"
	"errors"
	"sync"
)

// ErrClosed is returned by Broadcast after Close.
var ErrClosed = errors.New("transport closed")

// Envelope is one received broadcast. Seq is the local arrival order.
type Envelope struct {
	Seq     uint64          `json:"-"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Transport is a best-effort broadcast bus between peers. Delivery is
// at-most-once and unordered across senders; a peer never receives its own
// broadcasts.
type Transport interface {
	// Broadcast sends payload under topic to every other peer.
	Broadcast(topic string, payload []byte) error
	// Drain returns everything received since the last call, in arrival
	// order. Each envelope is returned exactly once.
	Drain() []Envelope
	// Ready is signalled, coalesced, whenever Drain has something to return.
	Ready() <-chan struct{}
	Close() error
}

// inbox is the arrival queue shared by the transport implementations.
type inbox struct {
	mu      sync.Mutex
	items   []Envelope
	seq     uint64
	limit   int
	dropped uint64
	ready   chan struct{}
}

func newInbox(limit int) *inbox {
	return &inbox{
		limit: limit,
		ready: make(chan struct{}, 1),
	}
}

// push appends env unless the queue is full. It never blocks.
func (q *inbox) push(topic string, payload []byte) bool {
	q.mu.Lock()
	if q.limit > 0 && len(q.items) >= q.limit {
		q.dropped++
		q.mu.Unlock()
		return false
	}
	q.seq++
	q.items = append(q.items, Envelope{Seq: q.seq, Topic: topic, Payload: payload})
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

func (q *inbox) drain() []Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *inbox) droppedCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

package transport

import (
	"slices"
	"sync"
)

// Hub is an in-process broadcast network. Every endpoint joined to a hub
// receives what the others broadcast.
type Hub struct {
	mu        sync.RWMutex
	endpoints map[int]*Endpoint
	next      int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		endpoints: make(map[int]*Endpoint),
	}
}

// Join attaches a new endpoint whose queue holds at most queueSize
// undrained envelopes. Further arrivals are dropped until it is drained.
func (h *Hub) Join(queueSize int) *Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	ep := &Endpoint{hub: h, id: h.next, inbox: newInbox(queueSize)}
	h.endpoints[ep.id] = ep
	h.next++
	return ep
}

// Size returns the number of attached endpoints.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.endpoints)
}

func (h *Hub) publish(from int, topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ep := range h.endpoints {
		if id == from {
			continue
		}
		// Each receiver gets its own copy so nobody can mutate another's payload.
		ep.inbox.push(topic, slices.Clone(payload))
	}
}

func (h *Hub) leave(id int) {
	h.mu.Lock()
	delete(h.endpoints, id)
	h.mu.Unlock()
}

// Endpoint is one peer's attachment to a Hub.
type Endpoint struct {
	hub    *Hub
	id     int
	inbox  *inbox
	mu     sync.Mutex
	closed bool
}

var _ Transport = (*Endpoint)(nil)

func (e *Endpoint) Broadcast(topic string, payload []byte) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	e.hub.publish(e.id, topic, payload)
	return nil
}

func (e *Endpoint) Drain() []Envelope {
	return e.inbox.drain()
}

func (e *Endpoint) Ready() <-chan struct{} {
	return e.inbox.ready
}

// Dropped returns how many arrivals were discarded on a full queue.
func (e *Endpoint) Dropped() uint64 {
	return e.inbox.droppedCount()
}

func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.hub.leave(e.id)
	return nil
}

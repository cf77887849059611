package bus

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Bus is an in-process publish/subscribe bus for local state-change
// notifications. Slow subscribers lose events instead of blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
	now  func() time.Time
}

type subscription struct {
	prefixes []string
	ch       chan Event
	dropped  atomic.Uint64
}

func (s *subscription) wants(kind string) bool {
	if len(s.prefixes) == 0 {
		return true
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(kind, p) {
			return true
		}
	}
	return false
}

// New creates a bus that stamps events with the wall clock.
func New() *Bus {
	return NewWithClock(time.Now)
}

// NewWithClock creates a bus that stamps events using now.
func NewWithClock(now func() time.Time) *Bus {
	return &Bus{
		subs: make(map[int]*subscription),
		now:  now,
	}
}

// Publish delivers an event of the given kind to every matching subscriber.
func (b *Bus) Publish(kind string, payload any) {
	evt := Event{Kind: kind, Timestamp: b.now(), Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(kind) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscription is the receiving side returned by Subscribe.
type Subscription struct {
	C      <-chan Event
	sub    *subscription
	cancel func()
}

// Dropped returns how many events this subscriber missed on a full buffer.
func (s *Subscription) Dropped() uint64 {
	return s.sub.dropped.Load()
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
}

// Subscribe returns a subscription receiving events whose kind starts with
// any of prefixes, or every event when none are given.
func (b *Bus) Subscribe(bufSize int, prefixes ...string) *Subscription {
	sub := &subscription{prefixes: prefixes, ch: make(chan Event, bufSize)}
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return &Subscription{
		C:   sub.ch,
		sub: sub,
		cancel: func() {
			once.Do(func() {
				b.mu.Lock()
				delete(b.subs, id)
				b.mu.Unlock()
			})
		},
	}
}

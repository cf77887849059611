package presence

import (
	"slices"
	"time"

	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/samber/lo"
)

// Update is a partial Peer. Nil fields leave the existing row untouched.
type Update struct {
	ID             string
	Name           *string
	Avatar         *string
	LastActivityTs *int64
	IsTyping       *bool
}

// FromPeer builds the update carried by join and heartbeat events. The typing
// flag is left out: it only moves on typing events.
func FromPeer(p protocol.Peer) Update {
	return Update{
		ID:             p.ID,
		Name:           lo.ToPtr(p.Name),
		Avatar:         lo.ToPtr(p.Avatar),
		LastActivityTs: lo.ToPtr(p.LastActivityTs),
	}
}

// FromTyping builds the update carried by a typing event. It never touches
// display fields.
func FromTyping(id string, isTyping bool, ts int64) Update {
	return Update{
		ID:             id,
		LastActivityTs: lo.ToPtr(ts),
		IsTyping:       lo.ToPtr(isTyping),
	}
}

// Change classifies what an Upsert did to the roster.
type Change int

const (
	// Touched means only the activity timestamp moved.
	Touched Change = iota
	// Updated means a visible field of an existing row changed.
	Updated
	// Added means the row did not exist before.
	Added
)

type row struct {
	peer protocol.Peer
	seq  uint64
}

// Manager owns the roster of known peers. It is not safe for concurrent use;
// the session coordinator mutates it from a single goroutine.
type Manager struct {
	rows     map[string]row
	next     uint64
	snapshot []protocol.Peer
}

// NewManager creates an empty roster.
func NewManager() *Manager {
	return &Manager{rows: make(map[string]row)}
}

// Upsert merges u into the row for u.ID, creating it if absent.
func (m *Manager) Upsert(u Update) Change {
	if u.ID == "" {
		return Touched
	}
	r, exists := m.rows[u.ID]
	if !exists {
		r = row{peer: protocol.Peer{ID: u.ID}, seq: m.next}
		m.next++
	}
	before := r.peer

	if u.Name != nil {
		r.peer.Name = *u.Name
	}
	if u.Avatar != nil {
		r.peer.Avatar = *u.Avatar
	}
	if u.LastActivityTs != nil {
		r.peer.LastActivityTs = *u.LastActivityTs
	}
	if u.IsTyping != nil {
		r.peer.IsTyping = *u.IsTyping
	}
	m.rows[u.ID] = r
	m.rebuild()

	switch {
	case !exists:
		return Added
	case before.Name != r.peer.Name || before.Avatar != r.peer.Avatar || before.IsTyping != r.peer.IsTyping:
		return Updated
	default:
		return Touched
	}
}

// Remove deletes the row for id. It reports whether a row was removed.
func (m *Manager) Remove(id string) bool {
	if _, ok := m.rows[id]; !ok {
		return false
	}
	delete(m.rows, id)
	m.rebuild()
	return true
}

// SweepStale removes every peer whose last activity is older than staleAfter
// and returns the evicted ids.
func (m *Manager) SweepStale(now time.Time, staleAfter time.Duration) []string {
	var evicted []string
	for id, r := range m.rows {
		if IsStale(r.peer, now, staleAfter) {
			delete(m.rows, id)
			evicted = append(evicted, id)
		}
	}
	if len(evicted) > 0 {
		slices.Sort(evicted)
		m.rebuild()
	}
	return evicted
}

// Get returns the row for id.
func (m *Manager) Get(id string) (protocol.Peer, bool) {
	r, ok := m.rows[id]
	return r.peer, ok
}

// Len returns the number of known peers.
func (m *Manager) Len() int {
	return len(m.rows)
}

// Roster returns the current snapshot in first-seen order. The slice is
// replaced, never mutated, so callers may keep it.
func (m *Manager) Roster() []protocol.Peer {
	return m.snapshot
}

func (m *Manager) rebuild() {
	rows := lo.Values(m.rows)
	slices.SortFunc(rows, func(a, b row) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
	m.snapshot = lo.Map(rows, func(r row, _ int) protocol.Peer { return r.peer })
}

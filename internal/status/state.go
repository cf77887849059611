package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/huddle/internal/bus"
)

// State is the lifecycle state of the local peer session.
type State string

const (
	Idle   State = "IDLE"
	Joined State = "JOINED"
	Left   State = "LEFT"
)

// validTransitions defines allowed state transitions. A session joins once
// and leaves once; a new session needs a new machine.
var validTransitions = map[State][]State{
	Idle:   {Joined, Left},
	Joined: {Left},
	Left:   {},
}

// Machine tracks and enforces session lifecycle transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Idle.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(bus.KindStatusChanged, StatusChange{From: from, To: to})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}

package counter

import (
	"time"

	"github.com/matheus3301/huddle/internal/protocol"
)

// State is the shared counter plus metadata about its last write.
// LastWriter is nil and LastWriteTs zero until the first write.
type State struct {
	Value       int64
	LastWriter  *protocol.Peer
	LastWriteTs int64
}

// Cell holds one peer's view of the shared counter. The last write applied
// wins: remote updates are applied in arrival order and the ts they carry is
// recorded but never compared.
type Cell struct {
	state State
}

// New returns a counter at zero with no writer.
func New() *Cell {
	return &Cell{}
}

// SetLocal overwrites the value as self and returns the new state for
// broadcast.
func (c *Cell) SetLocal(value int64, self protocol.Peer, now time.Time) State {
	c.state = State{Value: value, LastWriter: &self, LastWriteTs: now.UnixMilli()}
	return c.state
}

// ApplyRemote overwrites the value with a received update.
func (c *Cell) ApplyRemote(value int64, writer protocol.Peer, ts int64) State {
	c.state = State{Value: value, LastWriter: &writer, LastWriteTs: ts}
	return c.state
}

// Current returns the current state.
func (c *Cell) Current() State {
	return c.state
}

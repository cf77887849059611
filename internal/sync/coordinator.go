package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/chatlog"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/counter"
	"github.com/matheus3301/huddle/internal/identity"
	"github.com/matheus3301/huddle/internal/logging"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/matheus3301/huddle/internal/status"
	"github.com/matheus3301/huddle/internal/transport"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrNotAuthor      = errors.New("only the author may delete a message")
	ErrUnknownMessage = errors.New("unknown message")
	ErrNotRunning     = errors.New("session is not running")
)

// Params holds the collaborators of a Coordinator.
type Params struct {
	Self      identity.Identity
	Transport transport.Transport
	Bus       *bus.Bus
	Machine   *status.Machine
	Clock     clock.Clock
	Timing    config.Timing
	Logger    *zap.Logger
}

// Coordinator runs one peer of the session. It owns the roster, the chat log
// and the counter and mutates them only from its loop goroutine; everything
// else reaches them through closures sent over the intent channel.
type Coordinator struct {
	self      identity.Identity
	transport transport.Transport
	bus       *bus.Bus
	machine   *status.Machine
	clock     clock.Clock
	timing    config.Timing
	logger    *zap.Logger

	presence *presence.Manager
	log      *chatlog.Log
	counter  *counter.Cell

	// typing is the pending auto-clear timer, owned by the loop.
	typing *clock.Timer

	intents chan func()

	// lifecycle serialises Start and Stop. started is closed once the loop
	// runs; done is closed when it exits.
	lifecycle gosync.Mutex
	cancel    context.CancelFunc
	started   chan struct{}
	done      chan struct{}
}

// New creates a coordinator. Nil Bus, Machine, Clock and Logger are
// replaced with working defaults.
func New(p Params) *Coordinator {
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.Bus == nil {
		p.Bus = bus.NewWithClock(p.Clock.Now)
	}
	if p.Machine == nil {
		p.Machine = status.NewMachine(p.Bus)
	}
	return &Coordinator{
		self:      p.Self,
		transport: p.Transport,
		bus:       p.Bus,
		machine:   p.Machine,
		clock:     p.Clock,
		timing:    p.Timing,
		logger:    logging.OrNop(p.Logger),
		presence:  presence.NewManager(),
		log:       chatlog.New(),
		counter:   counter.New(),
		intents:   make(chan func()),
		started:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Self returns the local identity.
func (c *Coordinator) Self() identity.Identity {
	return c.self
}

// State returns the lifecycle state of the session.
func (c *Coordinator) State() status.State {
	return c.machine.Current()
}

// Start announces this peer and starts the event loop with its heartbeat and
// sweep timers. The loop runs until ctx is cancelled or Stop is called.
func (c *Coordinator) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if err := c.machine.Transition(status.Joined); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	me := c.self.Peer(c.clock.Now())
	c.broadcast(protocol.TopicJoin, protocol.Join{User: me})
	c.upsert(presence.FromPeer(me))

	heartbeat := c.clock.Ticker(c.timing.Heartbeat)
	sweep := c.clock.Ticker(c.timing.ExpireSweep)

	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx, heartbeat, sweep)
	close(c.started)

	c.logger.Info("session joined",
		zap.String("name", c.self.Name),
		zap.Duration("heartbeat", c.timing.Heartbeat),
		zap.Duration("sweep", c.timing.ExpireSweep))
	return nil
}

// Stop cancels the timers, waits for the loop to exit and broadcasts a
// final leave. It is safe to call more than once. If ctx ends before the
// loop exits the session stays joined and Stop may be retried.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	switch c.machine.Current() {
	case status.Left:
		return nil
	case status.Idle:
		return c.machine.Transition(status.Left)
	}

	c.cancel()
	select {
	case <-c.done:
	case <-ctx.Done():
		return fmt.Errorf("stop session: %w", ctx.Err())
	}

	c.broadcast(protocol.TopicLeave, protocol.Leave{UserID: c.self.ID})
	if err := c.machine.Transition(status.Left); err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	c.logger.Info("session left")
	return nil
}

func (c *Coordinator) run(ctx context.Context, heartbeat *clock.Ticker, sweep *clock.Ticker) {
	defer close(c.done)
	defer heartbeat.Stop()
	defer sweep.Stop()
	defer c.cancelTyping()

	for {
		var typingC <-chan time.Time
		if c.typing != nil {
			typingC = c.typing.C
		}

		select {
		case <-ctx.Done():
			return
		case <-c.transport.Ready():
			c.drain()
		case <-heartbeat.C:
			c.heartbeat()
		case <-sweep.C:
			c.sweep()
		case <-typingC:
			c.typing = nil
			c.broadcastTyping(false)
		case fn := <-c.intents:
			fn()
		}
	}
}

// do runs fn on the loop goroutine and waits for it to finish.
func (c *Coordinator) do(ctx context.Context, fn func()) error {
	select {
	case <-c.started:
	default:
		return ErrNotRunning
	}
	finished := make(chan struct{})
	select {
	case c.intents <- func() { fn(); close(finished) }:
	case <-c.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// SendMessage authors a message, stores it locally and broadcasts it.
// A ttl of zero or less means the message never expires.
func (c *Coordinator) SendMessage(ctx context.Context, text string, ttl time.Duration) (protocol.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return protocol.ChatMessage{}, ErrEmptyMessage
	}
	var msg protocol.ChatMessage
	err := c.do(ctx, func() { msg = c.sendMessage(text, ttl) })
	return msg, err
}

// DeleteMyMessage soft-deletes one of this peer's own messages everywhere.
func (c *Coordinator) DeleteMyMessage(ctx context.Context, id string) error {
	var result error
	if err := c.do(ctx, func() { result = c.deleteMyMessage(id) }); err != nil {
		return err
	}
	return result
}

// UpdateCounter sets the shared counter to an absolute value.
func (c *Coordinator) UpdateCounter(ctx context.Context, value int64) (counter.State, error) {
	var s counter.State
	err := c.do(ctx, func() { s = c.updateCounter(value) })
	return s, err
}

// MarkTyping broadcasts the typing indicator. A true value is cleared
// automatically after the debounce interval unless renewed.
func (c *Coordinator) MarkTyping(ctx context.Context, isTyping bool) error {
	return c.do(ctx, func() { c.markTyping(isTyping) })
}

// Roster returns the current roster snapshot.
func (c *Coordinator) Roster(ctx context.Context) ([]protocol.Peer, error) {
	var roster []protocol.Peer
	err := c.do(ctx, func() { roster = c.presence.Roster() })
	return roster, err
}

// Messages returns the visible messages in display order.
func (c *Coordinator) Messages(ctx context.Context) ([]protocol.ChatMessage, error) {
	var msgs []protocol.ChatMessage
	err := c.do(ctx, func() { msgs = c.log.Visible(c.clock.Now()) })
	return msgs, err
}

// Counter returns the counter value and its last writer.
func (c *Coordinator) Counter(ctx context.Context) (counter.State, error) {
	var s counter.State
	err := c.do(ctx, func() { s = c.counter.Current() })
	return s, err
}

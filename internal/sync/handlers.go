package sync

import (
	"time"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/counter"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/matheus3301/huddle/internal/transport"
	"go.uber.org/zap"
)

// Everything in this file runs on the loop goroutine, or before the loop
// starts.

func (c *Coordinator) heartbeat() {
	me := c.self.Peer(c.clock.Now())
	c.upsert(presence.FromPeer(me))
	c.broadcast(protocol.TopicHeartbeat, protocol.Heartbeat{User: me})
}

func (c *Coordinator) sweep() {
	now := c.clock.Now()
	if evicted := c.presence.SweepStale(now, c.timing.PresenceStale); len(evicted) > 0 {
		c.logger.Info("evicted stale peers", zap.Strings("peers", evicted))
		c.bus.Publish(bus.KindPresenceChanged, evicted)
	}
	if expired := c.log.ExpireSweep(now); len(expired) > 0 {
		c.logger.Debug("expired messages", zap.Strings("messages", expired))
		c.bus.Publish(bus.KindChatChanged, expired)
	}
}

func (c *Coordinator) drain() {
	for _, env := range c.transport.Drain() {
		c.dispatch(env)
	}
}

func (c *Coordinator) dispatch(env transport.Envelope) {
	payload, err := protocol.Decode(env.Topic, env.Payload)
	if err != nil {
		c.logger.Debug("ignoring event", zap.String("topic", env.Topic), zap.Uint64("seq", env.Seq), zap.Error(err))
		return
	}

	switch p := payload.(type) {
	case protocol.Join:
		if c.upsert(presence.FromPeer(p.User)) == presence.Added {
			c.logger.Info("peer joined", zap.String("id", p.User.ID), zap.String("name", p.User.Name))
		}
	case protocol.Heartbeat:
		c.upsert(presence.FromPeer(p.User))
	case protocol.Leave:
		if c.presence.Remove(p.UserID) {
			c.logger.Info("peer left", zap.String("id", p.UserID))
			c.bus.Publish(bus.KindPresenceChanged, p.UserID)
		}
	case protocol.Typing:
		c.upsert(presence.FromTyping(p.UserID, p.IsTyping, p.Ts))
	case protocol.CounterUpdate:
		c.counter.ApplyRemote(p.Value, p.By, p.Ts)
		c.bus.Publish(bus.KindCounterChanged, p.Value)
	case protocol.ChatMessageCreated:
		if c.log.ReceiveCreate(p.Msg) {
			c.bus.Publish(bus.KindChatChanged, p.Msg.ID)
		}
	case protocol.ChatMessageDeleted:
		if c.log.MarkDeleted(p.MessageID, p.By, p.Ts) {
			c.bus.Publish(bus.KindChatChanged, p.MessageID)
		}
	}
}

// upsert merges into the roster and notifies only on visible changes, so
// heartbeats alone do not flood subscribers.
func (c *Coordinator) upsert(u presence.Update) presence.Change {
	change := c.presence.Upsert(u)
	if change != presence.Touched {
		c.bus.Publish(bus.KindPresenceChanged, u.ID)
	}
	return change
}

func (c *Coordinator) sendMessage(text string, ttl time.Duration) protocol.ChatMessage {
	now := c.clock.Now()
	msg := c.log.Append(text, c.self.Peer(now), now, ttl)
	c.bus.Publish(bus.KindChatChanged, msg.ID)
	c.broadcast(protocol.TopicChatMessage, protocol.ChatMessageCreated{Msg: msg})
	return msg
}

func (c *Coordinator) deleteMyMessage(id string) error {
	msg, ok := c.log.Get(id)
	if !ok {
		return ErrUnknownMessage
	}
	if msg.AuthorID() != c.self.ID {
		return ErrNotAuthor
	}
	if msg.IsDeleted {
		return nil
	}
	now := c.clock.Now()
	me := c.self.Peer(now)
	c.log.MarkDeleted(id, me, now.UnixMilli())
	c.bus.Publish(bus.KindChatChanged, id)
	c.broadcast(protocol.TopicChatDelete, protocol.ChatMessageDeleted{MessageID: id, By: me, Ts: now.UnixMilli()})
	return nil
}

func (c *Coordinator) updateCounter(value int64) counter.State {
	now := c.clock.Now()
	s := c.counter.SetLocal(value, c.self.Peer(now), now)
	c.bus.Publish(bus.KindCounterChanged, value)
	c.broadcast(protocol.TopicCounterUpdate, protocol.CounterUpdate{Value: s.Value, By: *s.LastWriter, Ts: s.LastWriteTs})
	return s
}

// markTyping cancels any pending auto-clear before broadcasting, so at most
// one typing:false is ever scheduled.
func (c *Coordinator) markTyping(isTyping bool) {
	c.cancelTyping()
	c.broadcastTyping(isTyping)
	if isTyping {
		c.typing = c.clock.Timer(c.timing.TypingDebounce)
	}
}

func (c *Coordinator) cancelTyping() {
	if c.typing != nil {
		c.typing.Stop()
		c.typing = nil
	}
}

func (c *Coordinator) broadcastTyping(isTyping bool) {
	c.broadcast(protocol.TopicTyping, protocol.Typing{
		UserID:   c.self.ID,
		IsTyping: isTyping,
		Ts:       c.clock.Now().UnixMilli(),
	})
}

// broadcast is best-effort: failures are logged and otherwise ignored.
func (c *Coordinator) broadcast(topic string, payload any) {
	data, err := protocol.Encode(payload)
	if err != nil {
		c.logger.Error("failed to encode event", zap.String("topic", topic), zap.Error(err))
		return
	}
	if err := c.transport.Broadcast(topic, data); err != nil {
		c.logger.Warn("broadcast failed", zap.String("topic", topic), zap.Error(err))
	}
}

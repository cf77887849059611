package protocol

// Broadcast topics.
const (
	TopicJoin          = "join"
	TopicLeave         = "leave"
	TopicHeartbeat     = "heartbeat"
	TopicTyping        = "typing"
	TopicCounterUpdate = "counter:update"
	TopicChatMessage   = "chat:message"
	TopicChatDelete    = "chat:delete"
)

// Join announces a peer entering the channel.
type Join struct {
	User Peer `json:"user"`
}

// Leave announces a peer leaving. It is best-effort and may never arrive.
type Leave struct {
	UserID string `json:"userId" validate:"required"`
}

// Heartbeat refreshes the sender's roster row on every receiver.
type Heartbeat struct {
	User Peer `json:"user"`
}

// Typing toggles the sender's typing indicator.
type Typing struct {
	UserID   string `json:"userId" validate:"required"`
	IsTyping bool   `json:"isTyping"`
	Ts       int64  `json:"ts"`
}

// CounterUpdate carries an absolute counter value, never a delta.
type CounterUpdate struct {
	Value int64 `json:"value"`
	By    Peer  `json:"by"`
	Ts    int64 `json:"ts"`
}

// ChatMessageCreated carries a newly authored message.
type ChatMessageCreated struct {
	Msg ChatMessage `json:"msg"`
}

// ChatMessageDeleted soft-deletes a message on every receiver.
type ChatMessageDeleted struct {
	MessageID string `json:"messageId" validate:"required"`
	By        Peer   `json:"by"`
	Ts        int64  `json:"ts"`
}

package protocol

// Peer is one participating client as seen on the wire and in the roster.
// Name and Avatar may be empty for a peer known only through typing events.
type Peer struct {
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	LastActivityTs int64  `json:"lastActivityTs"`
	IsTyping       bool   `json:"isTyping,omitempty"`
}

// ChatMessage is a single entry of the shared chat log. All timestamps are
// Unix milliseconds; ExpiresAt is zero when the message never expires.
type ChatMessage struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text"`
	By        Peer   `json:"by"`
	Ts        int64  `json:"ts"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
	IsDeleted bool   `json:"isDeleted,omitempty"`
	DeletedBy *Peer  `json:"deletedBy,omitempty"`
	DeletedTs int64  `json:"deletedTs,omitempty"`
}

// AuthorID returns the id of the peer that created the message.
func (m ChatMessage) AuthorID() string {
	return m.By.ID
}

// Expired reports whether the message has an expiry at or before nowMs.
func (m ChatMessage) Expired(nowMs int64) bool {
	return m.ExpiresAt != 0 && m.ExpiresAt <= nowMs
}

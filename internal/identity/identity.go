package identity

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/huddle/internal/protocol"
)

var (
	adjectives = []string{"Amber", "Brisk", "Calm", "Dapper", "Eager", "Fuzzy", "Gentle", "Hazel", "Jolly", "Keen", "Lucky", "Mellow", "Nimble", "Quiet", "Rusty", "Sunny", "Tidy", "Witty"}
	animals    = []string{"Badger", "Crane", "Dingo", "Ferret", "Gecko", "Heron", "Ibis", "Koala", "Lynx", "Marmot", "Newt", "Otter", "Panda", "Quokka", "Raven", "Stoat", "Tapir", "Wombat"}
)

// Identity is the self identity of this process. It never changes after
// Generate returns.
type Identity struct {
	ID     string
	Name   string
	Avatar string
}

// Generate creates a fresh identity. A non-empty name replaces the random
// display name.
func Generate(name string) Identity {
	id := uuid.NewString()
	if name == "" {
		name = fmt.Sprintf("%s %s", adjectives[rand.IntN(len(adjectives))], animals[rand.IntN(len(animals))])
	}
	return Identity{
		ID:     id,
		Name:   name,
		Avatar: "https://api.dicebear.com/9.x/thumbs/svg?seed=" + url.QueryEscape(id),
	}
}

// Peer returns a new roster row for this identity, active at now.
func (i Identity) Peer(now time.Time) protocol.Peer {
	return protocol.Peer{
		ID:             i.ID,
		Name:           i.Name,
		Avatar:         i.Avatar,
		LastActivityTs: now.UnixMilli(),
	}
}

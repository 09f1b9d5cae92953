package core

import (
	"context"

	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/google/uuid"
)

// Frame is a raw encoded outbound message.
type Frame []byte

// Payload is signaling data the server relays without looking inside.
type Payload []byte

type ConnID string

func NewConnID() ConnID { return ConnID(uuid.NewString()) }

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// ConnContext is everything the coordinator knows about the connection an
// event arrived on. It is passed explicitly with every event.
type ConnContext struct {
	ConnID   ConnID
	Identity domain.UserIdentity
	Conn     SignalConnection
	// Cancel stops the connection's pumps. May be nil.
	Cancel context.CancelFunc
}

// Presence answers whether a user currently has a live connection.
type Presence interface {
	IsOnline(id domain.UserID) bool
}

// Sink delivers coordinator output that is not a reply to an inbound event,
// e.g. ringing timeouts.
type Sink interface {
	Deliver(ds []Delivery)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type CallID string

func NewCallID() CallID { return CallID(uuid.NewString()) }

func (id CallID) String() string { return string(id) }

type Phase string

const (
	PhaseRinging  Phase = "ringing"
	PhaseAccepted Phase = "accepted"
	PhaseRejected Phase = "rejected"
	PhaseEnded    Phase = "ended"
)

// Terminal phases never stay in the session table.
func (p Phase) Terminal() bool {
	return p == PhaseRejected || p == PhaseEnded
}

// CallSession is one call between exactly two users.
type CallSession struct {
	ID        CallID       `json:"callId"`
	Caller    UserIdentity `json:"caller"`
	Callee    UserIdentity `json:"callee"`
	Phase     Phase        `json:"phase"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (s CallSession) Involves(id UserID) bool {
	return s.Caller.ID == id || s.Callee.ID == id
}

// Peer returns the other participant. ok is false if id is not in the call.
func (s CallSession) Peer(id UserID) (UserIdentity, bool) {
	switch id {
	case s.Caller.ID:
		return s.Callee, true
	case s.Callee.ID:
		return s.Caller, true
	}
	return UserIdentity{}, false
}

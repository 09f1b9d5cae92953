// Package orch holds the signaling coordinator: the event state machine that
// sits between the gateway and the registry/session tables. It decides what
// to send to whom but never touches a connection itself.
package orch

import (
	"sync"
	"time"

	"github.com/dkeye/VoiceCall/internal/app"
	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
)

const DefaultRingTimeout = 30 * time.Second

type Coordinator struct {
	Registry *app.Registry
	Sessions *app.SessionTable
	// RingTimeout bounds how long a call may ring. Zero disables expiry.
	RingTimeout time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time

	// mu makes every event one step across both tables.
	mu sync.Mutex
}

func NewCoordinator(reg *app.Registry, sessions *app.SessionTable, ringTimeout time.Duration) *Coordinator {
	return &Coordinator{
		Registry:    reg,
		Sessions:    sessions,
		RingTimeout: ringTimeout,
	}
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// active rejects events from connections that never joined or were
// superseded by a newer connection of the same user.
func (c *Coordinator) active(cc core.ConnContext) error {
	if cc.Identity.ID == "" || !c.Registry.Bound(cc.ConnID) {
		return core.ErrNotJoined
	}
	return nil
}

// lookup finds the call uid refers to. An empty id means the user's
// current call. Calls uid is not part of are reported as not found.
func (c *Coordinator) lookup(uid domain.UserID, id domain.CallID) (domain.CallSession, error) {
	var (
		s  domain.CallSession
		ok bool
	)
	if id == "" {
		s, ok = c.Sessions.FindByParticipant(uid)
	} else {
		s, ok = c.Sessions.Get(id)
	}
	if !ok || !s.Involves(uid) {
		return domain.CallSession{}, core.ErrCallNotFound
	}
	return s, nil
}

// ActiveCalls is the number of live call sessions.
func (c *Coordinator) ActiveCalls() int {
	return c.Sessions.Len()
}

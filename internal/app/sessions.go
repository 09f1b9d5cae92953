package app

import (
	"sync"
	"time"

	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// SessionTable holds live calls only. A session that reaches a terminal
// phase is removed in the same critical section.
type SessionTable struct {
	mu     sync.Mutex
	byID   map[domain.CallID]*domain.CallSession
	byUser map[domain.UserID]domain.CallID
}

func NewSessionTable() *SessionTable {
	return &SessionTable{
		byID:   make(map[domain.CallID]*domain.CallSession),
		byUser: make(map[domain.UserID]domain.CallID),
	}
}

// TryCreate admits a call from caller to callee and stores it as Ringing.
// The busy and presence checks and the insert happen under one lock.
func (t *SessionTable) TryCreate(caller, callee domain.UserIdentity, presence core.Presence, now time.Time) (domain.CallSession, error) {
	if caller.ID == callee.ID {
		return domain.CallSession{}, core.ErrSelfCall
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.byUser[caller.ID]; busy {
		return domain.CallSession{}, core.ErrCallerBusy
	}
	if _, busy := t.byUser[callee.ID]; busy {
		return domain.CallSession{}, core.ErrCalleeBusy
	}
	if presence != nil && !presence.IsOnline(callee.ID) {
		return domain.CallSession{}, core.ErrCalleeOffline
	}

	s := &domain.CallSession{
		ID:        domain.NewCallID(),
		Caller:    caller,
		Callee:    callee,
		Phase:     domain.PhaseRinging,
		CreatedAt: now,
	}
	t.byID[s.ID] = s
	t.byUser[caller.ID] = s.ID
	t.byUser[callee.ID] = s.ID
	log.Debug().Str("module", "app.sessions").Str("call", s.ID.String()).
		Str("caller", caller.ID.String()).Str("callee", callee.ID.String()).Msg("ringing")
	return *s, nil
}

// Accept moves a Ringing call to Accepted. Accepting an already accepted
// call returns it unchanged.
func (t *SessionTable) Accept(id domain.CallID) (domain.CallSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byID[id]
	if !ok {
		return domain.CallSession{}, core.ErrCallNotFound
	}
	s.Phase = domain.PhaseAccepted
	log.Debug().Str("module", "app.sessions").Str("call", id.String()).Msg("accepted")
	return *s, nil
}

// Reject ends a Ringing call as Rejected and removes it. An accepted call
// can no longer be rejected; it has to be ended.
func (t *SessionTable) Reject(id domain.CallID) (domain.CallSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byID[id]
	if !ok || s.Phase != domain.PhaseRinging {
		return domain.CallSession{}, core.ErrCallNotFound
	}
	return t.removeLocked(s, domain.PhaseRejected), nil
}

// End terminates a call in any live phase and removes it.
func (t *SessionTable) End(id domain.CallID) (domain.CallSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byID[id]
	if !ok {
		return domain.CallSession{}, core.ErrCallNotFound
	}
	return t.removeLocked(s, domain.PhaseEnded), nil
}

func (t *SessionTable) removeLocked(s *domain.CallSession, phase domain.Phase) domain.CallSession {
	s.Phase = phase
	delete(t.byID, s.ID)
	delete(t.byUser, s.Caller.ID)
	delete(t.byUser, s.Callee.ID)
	log.Debug().Str("module", "app.sessions").Str("call", s.ID.String()).Str("phase", string(phase)).Msg("removed")
	return *s
}

func (t *SessionTable) Get(id domain.CallID) (domain.CallSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.byID[id]; ok {
		return *s, true
	}
	return domain.CallSession{}, false
}

func (t *SessionTable) FindByParticipant(uid domain.UserID) (domain.CallSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byUser[uid]
	if !ok {
		return domain.CallSession{}, false
	}
	return *t.byID[id], true
}

// ExpireRinging ends and returns every Ringing call created before cutoff.
func (t *SessionTable) ExpireRinging(cutoff time.Time) []domain.CallSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []domain.CallSession
	for _, s := range t.byID {
		if s.Phase == domain.PhaseRinging && s.CreatedAt.Before(cutoff) {
			out = append(out, t.removeLocked(s, domain.PhaseEnded))
		}
	}
	return out
}

func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

package app

import (
	"context"
	"sort"
	"sync"

	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	ConnID   core.ConnID
	Identity domain.UserIdentity
	Conn     core.SignalConnection
	Cancel   context.CancelFunc
}

func (e *connEntry) evict() {
	if e.Cancel != nil {
		e.Cancel()
	}
	if e.Conn != nil {
		e.Conn.Close()
	}
}

// Registry maps each online user to its single live signaling connection.
// byConn only holds current bindings; superseded connections are dropped
// from it at once, so their late Unregister is a no-op.
type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]*connEntry
	byConn map[core.ConnID]*connEntry

	onChange func(online int)
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[domain.UserID]*connEntry),
		byConn: make(map[core.ConnID]*connEntry),
	}
}

// OnPresenceChange sets a callback fired after every register/unregister
// that changes the presence set. Set it before serving traffic.
func (r *Registry) OnPresenceChange(fn func(online int)) { r.onChange = fn }

// Register binds cc to its user. A previous live connection of the same user
// is closed; superseded reports whether that happened.
func (r *Registry) Register(cc core.ConnContext) (superseded bool) {
	uid := cc.Identity.ID
	entry := &connEntry{
		ConnID:   cc.ConnID,
		Identity: cc.Identity,
		Conn:     cc.Conn,
		Cancel:   cc.Cancel,
	}

	r.mu.Lock()
	old, had := r.byUser[uid]
	if had && old.ConnID == cc.ConnID {
		had = false
	}
	if had {
		delete(r.byConn, old.ConnID)
	}
	r.byUser[uid] = entry
	r.byConn[cc.ConnID] = entry
	online := len(r.byUser)
	r.mu.Unlock()

	if had {
		log.Info().Str("module", "app.registry").Str("user", uid.String()).
			Str("conn", string(old.ConnID)).Str("by", string(cc.ConnID)).Msg("connection superseded")
		old.evict()
	}
	log.Info().Str("module", "app.registry").Str("user", uid.String()).Str("conn", string(cc.ConnID)).Msg("registered")
	r.notify(online)
	return had
}

// Unregister removes the binding of connID. wentOffline is true only when
// connID was the user's current connection.
func (r *Registry) Unregister(connID core.ConnID) (domain.UserIdentity, bool) {
	r.mu.Lock()
	entry, ok := r.byConn[connID]
	if !ok {
		r.mu.Unlock()
		return domain.UserIdentity{}, false
	}
	delete(r.byConn, connID)
	delete(r.byUser, entry.Identity.ID)
	online := len(r.byUser)
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("user", entry.Identity.ID.String()).Str("conn", string(connID)).Msg("unregistered")
	r.notify(online)
	return entry.Identity, true
}

func (r *Registry) notify(online int) {
	if r.onChange != nil {
		r.onChange(online)
	}
}

func (r *Registry) IsOnline(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[id]
	return ok
}

// ListOnline returns a snapshot of the presence set ordered by user id.
func (r *Registry) ListOnline() []domain.UserIdentity {
	r.mu.RLock()
	out := make([]domain.UserIdentity, 0, len(r.byUser))
	for _, e := range r.byUser {
		out = append(out, e.Identity)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Lookup returns the live connection of a user.
func (r *Registry) Lookup(id domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byUser[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

// Identity returns the identity a user joined with.
func (r *Registry) Identity(id domain.UserID) (domain.UserIdentity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byUser[id]; ok {
		return e.Identity, true
	}
	return domain.UserIdentity{}, false
}

// Bound reports whether connID is the current connection of some user.
func (r *Registry) Bound(connID core.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byConn[connID]
	return ok
}

type regSnap struct {
	User domain.UserID
	Conn core.SignalConnection
}

// Snapshot copies all live connections for a broadcast.
func (r *Registry) Snapshot() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.byUser))
	for uid, e := range r.byUser {
		out = append(out, regSnap{User: uid, Conn: e.Conn})
	}
	return out
}

// Evict closes the user's connection without unregistering it; the
// connection's own worker reports the disconnect.
func (r *Registry) Evict(id domain.UserID) bool {
	r.mu.RLock()
	e, ok := r.byUser[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	e.evict()
	log.Info().Str("module", "app.registry").Str("user", id.String()).Str("conn", string(e.ConnID)).Msg("evicted")
	return true
}

package app

import (
	"sync"
	"testing"

	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrConnClosed
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func ident(id string) domain.UserIdentity {
	return domain.UserIdentity{ID: domain.UserID(id), Name: id}
}

func connCtx(conn core.ConnID, user string) (core.ConnContext, *fakeConn) {
	fc := &fakeConn{}
	return core.ConnContext{ConnID: conn, Identity: ident(user), Conn: fc}, fc
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	var changes []int
	r.OnPresenceChange(func(n int) { changes = append(changes, n) })

	a, aConn := connCtx("c1", "alice")
	b, _ := connCtx("c2", "bob")
	if r.Register(a) || r.Register(b) {
		t.Fatal("fresh registrations must not supersede")
	}

	if !r.IsOnline("alice") || !r.IsOnline("bob") || r.IsOnline("carol") {
		t.Fatal("presence mismatch")
	}
	if got, ok := r.Lookup("alice"); !ok || got != aConn {
		t.Fatal("lookup returned wrong connection")
	}
	online := r.ListOnline()
	if len(online) != 2 || online[0].ID != "alice" || online[1].ID != "bob" {
		t.Fatalf("ListOnline = %+v", online)
	}
	if r.Count() != 2 || len(r.Snapshot()) != 2 {
		t.Fatal("count/snapshot mismatch")
	}
	if len(changes) != 2 || changes[1] != 2 {
		t.Fatalf("presence callbacks = %v", changes)
	}
}

func TestRegistrySupersede(t *testing.T) {
	r := NewRegistry()
	cancelled := false
	old, oldConn := connCtx("old", "alice")
	old.Cancel = func() { cancelled = true }
	r.Register(old)

	fresh, freshConn := connCtx("new", "alice")
	if !r.Register(fresh) {
		t.Fatal("second registration should supersede")
	}
	if !oldConn.isClosed() || !cancelled {
		t.Fatal("superseded connection not closed and cancelled")
	}
	if r.Bound("old") || !r.Bound("new") {
		t.Fatal("bindings not swapped")
	}

	// The old connection's late disconnect changes nothing.
	if _, wentOffline := r.Unregister("old"); wentOffline {
		t.Fatal("stale unregister took the user offline")
	}
	if got, _ := r.Lookup("alice"); got != freshConn {
		t.Fatal("current connection lost")
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d", r.Count())
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	a, _ := connCtx("c1", "alice")
	r.Register(a)

	id, wentOffline := r.Unregister("c1")
	if !wentOffline || id.ID != "alice" {
		t.Fatalf("Unregister = %+v, %v", id, wentOffline)
	}
	if r.IsOnline("alice") {
		t.Fatal("still online")
	}
	if _, again := r.Unregister("c1"); again {
		t.Fatal("double unregister reported offline twice")
	}
}

func TestRegistryEvictKeepsBinding(t *testing.T) {
	r := NewRegistry()
	a, conn := connCtx("c1", "alice")
	r.Register(a)

	if !r.Evict("alice") {
		t.Fatal("evict of online user failed")
	}
	if !conn.isClosed() {
		t.Fatal("connection not closed")
	}
	if !r.IsOnline("alice") {
		t.Fatal("evict must leave unregistering to the connection owner")
	}
	if r.Evict("bob") {
		t.Fatal("evict of offline user reported success")
	}
}

func TestRegistryIdentity(t *testing.T) {
	r := NewRegistry()
	cc, _ := connCtx("c1", "alice")
	cc.Identity.Name = "Alice"
	r.Register(cc)
	if id, ok := r.Identity("alice"); !ok || id.Name != "Alice" {
		t.Fatalf("Identity = %+v, %v", id, ok)
	}
	if _, ok := r.Identity("bob"); ok {
		t.Fatal("identity for offline user")
	}
}

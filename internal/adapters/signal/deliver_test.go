package signal

import (
	"sync"
	"testing"

	"github.com/dkeye/VoiceCall/internal/app"
	"github.com/dkeye/VoiceCall/internal/app/orch"
	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
)

// stuckConn reports backpressure on every send.
type stuckConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *stuckConn) TrySend(core.Frame) error { return core.ErrBackpressure }
func (c *stuckConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

type countingConn struct {
	mu sync.Mutex
	n  int
}

func (c *countingConn) TrySend(core.Frame) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return nil
}
func (c *countingConn) Close() {}

func TestDeliverBackpressurePolicy(t *testing.T) {
	for _, kick := range []bool{false, true} {
		reg := app.NewRegistry()
		slow := &stuckConn{}
		reg.Register(core.ConnContext{ConnID: "c1", Identity: domain.UserIdentity{ID: "alice"}, Conn: slow})

		g := NewGateway(orch.NewCoordinator(reg, app.NewSessionTable(), 0), nil, app.SimplePolicy{KickSlow: kick}, nil, DefaultOptions())
		g.Deliver([]core.Delivery{core.To("alice", core.Message{Kind: core.KindPresenceUpdate})})

		if slow.closed != kick {
			t.Fatalf("kick=%v: closed=%v", kick, slow.closed)
		}
	}
}

func TestDeliverBroadcastAndOffline(t *testing.T) {
	reg := app.NewRegistry()
	a, b := &countingConn{}, &countingConn{}
	reg.Register(core.ConnContext{ConnID: "c1", Identity: domain.UserIdentity{ID: "alice"}, Conn: a})
	reg.Register(core.ConnContext{ConnID: "c2", Identity: domain.UserIdentity{ID: "bob"}, Conn: b})
	g := NewGateway(orch.NewCoordinator(reg, app.NewSessionTable(), 0), nil, nil, nil, DefaultOptions())

	g.Deliver([]core.Delivery{
		core.Broadcast(core.Message{Kind: core.KindPresenceUpdate, OnlineUsers: reg.ListOnline()}),
		core.To("carol", core.Message{Kind: core.KindUserBusy}),
		core.To("bob", core.Message{Kind: core.KindCallEnded, CallID: "x"}),
	})
	if a.n != 1 || b.n != 2 {
		t.Fatalf("alice got %d, bob got %d", a.n, b.n)
	}
}

package orch

import (
	"context"
	"testing"
	"time"
)

func TestReaperDeliversTimeouts(t *testing.T) {
	h := newHarness(t)
	h.join("alice")
	h.join("bob")
	h.call("alice", "bob")
	h.coord.RingTimeout = time.Millisecond
	h.coord.Now = nil

	sink := &recordingSink{}
	r := &Reaper{Coord: h.coord, Sink: sink, Interval: 5 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Run(ctx); close(done) }()

	deadline := time.After(2 * time.Second)
	for sink.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("reaper never expired the call")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
	if h.coord.ActiveCalls() != 0 {
		t.Fatal("call not removed")
	}
}

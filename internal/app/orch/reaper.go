package orch

import (
	"context"
	"time"

	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/rs/zerolog/log"
)

// ExpireRinging ends calls that rang longer than RingTimeout. The caller is
// told the call went unanswered, the callee that it timed out.
func (c *Coordinator) ExpireRinging(now time.Time) []core.Delivery {
	if c.RingTimeout <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []core.Delivery
	for _, s := range c.Sessions.ExpireRinging(now.Add(-c.RingTimeout)) {
		log.Info().Str("module", "orch").Str("call", s.ID.String()).
			Dur("rang", now.Sub(s.CreatedAt)).Msg("call unanswered")
		out = append(out,
			core.To(s.Caller.ID, core.Message{
				Kind:   core.KindCallRejected,
				CallID: s.ID,
				From:   s.Callee,
				Reason: core.ReasonNoAnswer,
			}),
			core.To(s.Callee.ID, core.Message{
				Kind:   core.KindCallEnded,
				CallID: s.ID,
				From:   s.Caller,
				Reason: core.ReasonTimeout,
			}),
		)
	}
	return out
}

// Reaper periodically expires ringing calls and hands the notices to Sink.
type Reaper struct {
	Coord    *Coordinator
	Sink     core.Sink
	Interval time.Duration
}

// Run blocks until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	log.Info().Str("module", "orch.reaper").Dur("interval", interval).Msg("started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.reaper").Msg("stopped")
			return
		case <-t.C:
			if ds := r.Coord.ExpireRinging(r.Coord.now()); len(ds) > 0 {
				r.Sink.Deliver(ds)
			}
		}
	}
}

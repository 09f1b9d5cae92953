package orch

import (
	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join binds the connection to its user and announces the new presence set
// to everyone. Superseding an older connection closes it, and the call that
// lived on it ends as if it had disconnected.
func (c *Coordinator) Join(cc core.ConnContext) []core.Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()

	superseded := c.Registry.Register(cc)
	log.Info().Str("module", "orch").Str("user", cc.Identity.ID.String()).
		Str("conn", string(cc.ConnID)).Bool("superseded", superseded).Msg("join")

	out := []core.Delivery{core.To(cc.Identity.ID, core.Message{Kind: core.KindJoined, From: cc.Identity})}
	if superseded {
		out = append(out, c.endCallOfLocked(cc.Identity)...)
	}
	return append(out, c.presenceLocked())
}

// Disconnect handles a closed connection. Only the user's current
// connection counts: a superseded one was already settled by Join.
func (c *Coordinator) Disconnect(connID core.ConnID) []core.Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, wentOffline := c.Registry.Unregister(connID)
	if !wentOffline {
		return nil
	}
	log.Info().Str("module", "orch").Str("user", user.ID.String()).Str("conn", string(connID)).Msg("disconnect")

	return append(c.endCallOfLocked(user), c.presenceLocked())
}

// endCallOfLocked ends the user's call, if any, because the connection it
// was made on is gone. Only the peer is told.
func (c *Coordinator) endCallOfLocked(user domain.UserIdentity) []core.Delivery {
	s, ok := c.Sessions.FindByParticipant(user.ID)
	if !ok {
		return nil
	}
	ended, err := c.Sessions.End(s.ID)
	if err != nil {
		return nil
	}
	peer, _ := ended.Peer(user.ID)
	log.Info().Str("module", "orch").Str("call", ended.ID.String()).Str("user", user.ID.String()).Msg("call ended by disconnect")
	return []core.Delivery{core.To(peer.ID, core.Message{
		Kind:   core.KindCallEnded,
		CallID: ended.ID,
		From:   user,
		Reason: core.ReasonDisconnected,
	})}
}

// Logout closes the user's live connection. The gateway worker of that
// connection then reports Disconnect as usual.
func (c *Coordinator) Logout(uid domain.UserID) bool {
	return c.Registry.Evict(uid)
}

// Online is the current presence set.
func (c *Coordinator) Online() []domain.UserIdentity {
	return c.Registry.ListOnline()
}

func (c *Coordinator) presenceLocked() core.Delivery {
	return core.Broadcast(core.Message{
		Kind:        core.KindPresenceUpdate,
		OnlineUsers: c.Registry.ListOnline(),
	})
}

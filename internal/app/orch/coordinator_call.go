package orch

import (
	"errors"

	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// InitiateCall admits a call from the connection's user to callee and rings
// the callee. Refusals go back to the caller only.
func (c *Coordinator) InitiateCall(cc core.ConnContext, callee domain.UserID, signal, meta core.Payload) ([]core.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.active(cc); err != nil {
		return nil, err
	}

	caller := cc.Identity
	target, ok := c.Registry.Identity(callee)
	if !ok {
		target = domain.UserIdentity{ID: callee, Name: callee.String()}
	}

	s, err := c.Sessions.TryCreate(caller, target, c.Registry, c.now())
	if err != nil {
		var adm *core.AdmissionError
		if !errors.As(err, &adm) {
			return nil, err
		}
		log.Info().Str("module", "orch").Str("caller", caller.ID.String()).
			Str("callee", callee.String()).Str("reason", string(adm.Reason)).Msg("call refused")
		return []core.Delivery{core.To(caller.ID, refusal(adm, target))}, err
	}

	log.Info().Str("module", "orch").Str("call", s.ID.String()).
		Str("caller", caller.ID.String()).Str("callee", callee.String()).Msg("call ringing")
	return []core.Delivery{
		core.To(callee, core.Message{
			Kind:   core.KindIncomingCall,
			CallID: s.ID,
			From:   caller,
			Signal: signal,
			Meta:   meta,
		}),
		core.To(caller.ID, core.Message{
			Kind:   core.KindRinging,
			CallID: s.ID,
			From:   s.Callee,
		}),
	}, nil
}

func refusal(adm *core.AdmissionError, target domain.UserIdentity) core.Message {
	switch adm.Reason {
	case core.CallerBusy, core.CalleeBusy:
		return core.Message{Kind: core.KindUserBusy, From: target, Reason: core.ReasonBusy}
	case core.SelfCall:
		return core.Message{Kind: core.KindUserUnavailable, From: target, Reason: core.ReasonSelfCall}
	default:
		return core.Message{Kind: core.KindUserUnavailable, From: target, Reason: core.ReasonOffline}
	}
}

// AcceptCall answers a ringing call. Only the callee may accept. If the
// caller vanished in the meantime the call is ended instead.
func (c *Coordinator) AcceptCall(cc core.ConnContext, id domain.CallID, signal core.Payload) ([]core.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.active(cc); err != nil {
		return nil, err
	}

	me := cc.Identity
	s, err := c.lookup(me.ID, id)
	if err != nil || s.Callee.ID != me.ID {
		log.Debug().Str("module", "orch").Str("user", me.ID.String()).Str("call", id.String()).Msg("accept: no such call")
		return nil, core.ErrCallNotFound
	}
	if s.Phase == domain.PhaseAccepted {
		return nil, nil
	}

	if !c.Registry.IsOnline(s.Caller.ID) {
		ended, err := c.Sessions.End(s.ID)
		if err != nil {
			return nil, err
		}
		log.Info().Str("module", "orch").Str("call", s.ID.String()).Msg("accept: caller gone, ending call")
		return []core.Delivery{core.To(me.ID, core.Message{
			Kind:   core.KindCallEnded,
			CallID: ended.ID,
			From:   ended.Caller,
			Reason: core.ReasonDisconnected,
		})}, core.ErrCallerGone
	}

	accepted, err := c.Sessions.Accept(s.ID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "orch").Str("call", s.ID.String()).Msg("call accepted")
	return []core.Delivery{core.To(accepted.Caller.ID, core.Message{
		Kind:   core.KindCallAccepted,
		CallID: accepted.ID,
		From:   me,
		Signal: signal,
	})}, nil
}

// RejectCall declines a ringing call. Only the callee may reject; a
// second reject finds nothing.
func (c *Coordinator) RejectCall(cc core.ConnContext, id domain.CallID) ([]core.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.active(cc); err != nil {
		return nil, err
	}

	me := cc.Identity
	s, err := c.lookup(me.ID, id)
	if err != nil || s.Callee.ID != me.ID {
		log.Debug().Str("module", "orch").Str("user", me.ID.String()).Str("call", id.String()).Msg("reject: no such call")
		return nil, core.ErrCallNotFound
	}
	rejected, err := c.Sessions.Reject(s.ID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "orch").Str("call", s.ID.String()).Msg("call rejected")
	return []core.Delivery{core.To(rejected.Caller.ID, core.Message{
		Kind:   core.KindCallRejected,
		CallID: rejected.ID,
		From:   me,
		Reason: core.ReasonRejected,
	})}, nil
}

// EndCall hangs up from either side, ringing or accepted.
func (c *Coordinator) EndCall(cc core.ConnContext, id domain.CallID) ([]core.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.active(cc); err != nil {
		return nil, err
	}

	me := cc.Identity
	s, err := c.lookup(me.ID, id)
	if err != nil {
		log.Debug().Str("module", "orch").Str("user", me.ID.String()).Str("call", id.String()).Msg("end: no such call")
		return nil, err
	}
	ended, err := c.Sessions.End(s.ID)
	if err != nil {
		return nil, err
	}
	peer, _ := ended.Peer(me.ID)
	log.Info().Str("module", "orch").Str("call", s.ID.String()).Str("by", me.ID.String()).Msg("call ended")
	return []core.Delivery{core.To(peer.ID, core.Message{
		Kind:   core.KindCallEnded,
		CallID: ended.ID,
		From:   me,
		Reason: core.ReasonHangup,
	})}, nil
}

// RelaySignal forwards payload untouched to the other participant.
func (c *Coordinator) RelaySignal(cc core.ConnContext, id domain.CallID, payload core.Payload) ([]core.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.active(cc); err != nil {
		return nil, err
	}

	me := cc.Identity
	s, err := c.lookup(me.ID, id)
	if err != nil {
		return nil, err
	}
	peer, _ := s.Peer(me.ID)
	return []core.Delivery{core.To(peer.ID, core.Message{
		Kind:   core.KindRelaySignal,
		CallID: s.ID,
		From:   me,
		Signal: payload,
	})}, nil
}

package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/VoiceCall/internal/adapters/auth"
	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (g *Gateway) writePump(ctx context.Context, c *wsSignalConn) {
	var ping <-chan time.Time
	if g.Opts.PingPeriod > 0 {
		t := time.NewTicker(g.Opts.PingPeriod)
		defer t.Stop()
		ping = t.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(deadline(g.Opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				c.Close()
				return
			}
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline(g.Opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("ping failed")
				c.Close()
				return
			}
		}
	}
}

// readPump owns the connection's identity. It runs until the socket fails,
// then reports the disconnect exactly once.
func (g *Gateway) readPump(ctx context.Context, cc core.ConnContext, c *wsSignalConn, sessionToken string) {
	joined := false
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(cc.ConnID)).Str("user", cc.Identity.ID.String()).Msg("readPump closing")
		cc.Cancel()
		c.Close()
		if joined {
			g.Deliver(g.Coord.Disconnect(cc.ConnID))
		}
	}()

	_ = c.conn.SetReadDeadline(deadline(g.Opts.JoinTimeout))
	c.conn.SetPongHandler(func(string) error {
		if !joined {
			return nil
		}
		return c.conn.SetReadDeadline(deadline(g.Opts.PongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var ne interface{ Timeout() bool }
			if !joined && errors.As(err, &ne) && ne.Timeout() {
				log.Info().Str("module", "signal").Str("conn", string(cc.ConnID)).Msg("no join in time")
				c.closeWith(websocket.ClosePolicyViolation, codeJoinTimeout, g.Opts.WriteWait)
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(cc.ConnID)).Msg("readPump read error")
			}
			return
		}

		msg, err := decodeInbound(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("conn", string(cc.ConnID)).Msg("bad json")
			if !joined {
				c.closeWith(websocket.ClosePolicyViolation, codeBadPayload, g.Opts.WriteWait)
				return
			}
			g.sendError(c, codeBadPayload, err.Error())
			continue
		}

		if !joined {
			if msg.Type != typeJoin {
				log.Info().Str("module", "signal").Str("conn", string(cc.ConnID)).Str("type", msg.Type).Msg("message before join")
				c.closeWith(websocket.ClosePolicyViolation, codeNotJoined, g.Opts.WriteWait)
				return
			}
			id, err := g.Auth.Resolve(ctx, credential(msg, sessionToken))
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", string(cc.ConnID)).Msg("join refused")
				c.closeWith(websocket.ClosePolicyViolation, codeUnauthorized, g.Opts.WriteWait)
				return
			}
			cc.Identity = id
			joined = true
			_ = c.conn.SetReadDeadline(deadline(g.Opts.PongWait))
			g.Deliver(g.Coord.Join(cc))
			continue
		}

		g.handleSignal(cc, c, msg)
	}
}

// deadline turns a wait into an absolute deadline; zero means none.
func deadline(wait time.Duration) time.Time {
	if wait <= 0 {
		return time.Time{}
	}
	return time.Now().Add(wait)
}

func credential(msg inbound, sessionToken string) auth.Credential {
	cred := auth.Credential{Token: msg.Token, UserID: msg.UserID, Name: msg.Name}
	if cred.Token == "" {
		cred.Token = sessionToken
	}
	return cred
}

func (g *Gateway) handleSignal(cc core.ConnContext, c *wsSignalConn, msg inbound) {
	var (
		ds  []core.Delivery
		err error
	)
	switch msg.Type {
	case typeJoin:
		g.sendError(c, codeAlreadyJoined, "")
		return
	case typePing:
		g.handlePing(c)
		return
	case typeInitiateCall:
		if msg.ToUserID == "" {
			g.sendError(c, codeBadPayload, "toUserId required")
			return
		}
		if !g.Limiter.Allow(cc.Identity.ID) {
			log.Warn().Str("module", "signal").Str("user", cc.Identity.ID.String()).Msg("call attempts rate limited")
			g.sendError(c, codeRateLimited, "")
			return
		}
		ds, err = g.Coord.InitiateCall(cc, domain.UserID(msg.ToUserID), payload(msg.Signal), payload(msg.Meta))
	case typeAcceptCall:
		ds, err = g.Coord.AcceptCall(cc, domain.CallID(msg.CallID), payload(msg.Signal))
		if errors.Is(err, core.ErrCallNotFound) {
			g.sendError(c, codeCallNotFound, "")
		}
	case typeRejectCall:
		ds, err = g.Coord.RejectCall(cc, domain.CallID(msg.CallID))
	case typeEndCall:
		ds, err = g.Coord.EndCall(cc, domain.CallID(msg.CallID))
	case typeRelaySignal:
		ds, err = g.Coord.RelaySignal(cc, domain.CallID(msg.CallID), payload(msg.Payload))
	default:
		log.Warn().Str("module", "signal").Str("type", msg.Type).Msg("unknown signal")
		g.sendError(c, codeUnknownType, msg.Type)
		return
	}

	g.Deliver(ds)

	switch {
	case err == nil:
	case errors.Is(err, core.ErrNotJoined):
		g.sendError(c, codeNotJoined, "")
	case errors.Is(err, core.ErrCallNotFound):
		log.Debug().Str("module", "signal").Str("user", cc.Identity.ID.String()).Str("type", msg.Type).Msg("no such call")
	default:
		log.Debug().Err(err).Str("module", "signal").Str("user", cc.Identity.ID.String()).Str("type", msg.Type).Msg("event refused")
	}
}

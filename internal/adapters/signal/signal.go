// Package signal is the websocket gateway: it owns connections, decodes
// client messages into coordinator events and delivers what the coordinator
// decides to send.
package signal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkeye/VoiceCall/internal/adapters/auth"
	"github.com/dkeye/VoiceCall/internal/app"
	"github.com/dkeye/VoiceCall/internal/app/orch"
	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// SessionTokenKey is the gin context key under which the HTTP layer leaves
// a login token. Join falls back to it when the message carries none.
const SessionTokenKey = "session_token"

type Options struct {
	ReadLimit   int64
	PingPeriod  time.Duration
	PongWait    time.Duration
	WriteWait   time.Duration
	JoinTimeout time.Duration
	SendBuffer  int
}

func DefaultOptions() Options {
	return Options{
		ReadLimit:   64 << 10,
		PingPeriod:  54 * time.Second,
		PongWait:    60 * time.Second,
		WriteWait:   5 * time.Second,
		JoinTimeout: 10 * time.Second,
		SendBuffer:  32,
	}
}

type Gateway struct {
	Coord   *orch.Coordinator
	Auth    auth.Resolver
	Policy  app.Policy
	Limiter *CallRateLimiter
	Opts    Options
}

func NewGateway(coord *orch.Coordinator, resolver auth.Resolver, policy app.Policy, limiter *CallRateLimiter, opts Options) *Gateway {
	return &Gateway{
		Coord:   coord,
		Auth:    resolver,
		Policy:  policy,
		Limiter: limiter,
		Opts:    opts,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and starts the connection's pumps. ctx
// bounds the connection's lifetime.
func (g *Gateway) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if g.Opts.ReadLimit > 0 {
		ws.SetReadLimit(g.Opts.ReadLimit)
	}

	conn := newWsSignalConn(ws, g.Opts.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	cc := core.ConnContext{
		ConnID: core.NewConnID(),
		Conn:   conn,
		Cancel: cancel,
	}
	log.Info().Str("module", "signal").Str("conn", string(cc.ConnID)).Str("remote", c.ClientIP()).Msg("new WS connection")

	go g.writePump(ctx, conn)
	go g.readPump(ctx, cc, conn, c.GetString(SessionTokenKey))
}

// Deliver sends each delivery to its target's live connection. Targets
// that are offline are skipped; send failures are logged and handed to the
// backpressure policy. Deliver implements core.Sink.
func (g *Gateway) Deliver(ds []core.Delivery) {
	for _, d := range ds {
		frame, err := encodeMessage(d.Msg)
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Str("kind", string(d.Msg.Kind)).Msg("encode")
			continue
		}
		if d.Broadcast {
			for _, snap := range g.Coord.Registry.Snapshot() {
				g.send(snap.User, snap.Conn, frame, d.Msg.Kind)
			}
			continue
		}
		conn, ok := g.Coord.Registry.Lookup(d.To)
		if !ok {
			log.Debug().Str("module", "signal").Str("user", d.To.String()).
				Str("kind", string(d.Msg.Kind)).Msg("target offline, dropped")
			continue
		}
		g.send(d.To, conn, frame, d.Msg.Kind)
	}
}

func (g *Gateway) send(user domain.UserID, conn core.SignalConnection, frame core.Frame, kind core.Kind) {
	err := conn.TrySend(frame)
	if err == nil {
		return
	}
	log.Warn().Err(err).Str("module", "signal").Str("user", user.String()).Str("kind", string(kind)).Msg("send dropped")
	if !errors.Is(err, core.ErrBackpressure) || g.Policy == nil {
		return
	}
	if g.Policy.OnBackPressure(user) == app.KickConnection {
		log.Warn().Str("module", "signal").Str("user", user.String()).Msg("slow consumer kicked")
		conn.Close()
	}
}

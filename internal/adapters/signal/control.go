package signal

import (
	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/rs/zerolog/log"
)

func (g *Gateway) handlePing(conn core.SignalConnection) {
	g.reply(conn, pongFrame)
}

func (g *Gateway) sendError(conn core.SignalConnection, code, message string) {
	g.reply(conn, errorFrame(code, message))
}

// reply sends a frame straight back on the connection an event came from.
func (g *Gateway) reply(conn core.SignalConnection, f core.Frame) {
	if err := conn.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("reply dropped")
	}
}

package signal

import (
	"sync"
	"time"

	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/gorilla/websocket"
)

// wsSignalConn is the send side of one websocket. Frames go through a
// bounded channel drained by writePump; a full channel is backpressure.
type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *wsSignalConn {
	return &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// closeWith sends a close frame carrying code and reason, then closes.
func (c *wsSignalConn) closeWith(code int, reason string, wait time.Duration) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline(wait))
	c.Close()
}

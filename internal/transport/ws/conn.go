package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/room-chat/internal/chat"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// wsConn is a chat.Peer backed by a websocket. The engine only ever enqueues
// into send; the write pump is the single writer of the socket.
type wsConn struct {
	ws   *websocket.Conn
	addr string
	log  *slog.Logger

	send   chan chat.Event
	closed chan struct{}
	once   sync.Once
}

func newWsConn(ws *websocket.Conn, addr string, buffer int, log *slog.Logger) *wsConn {
	return &wsConn{
		ws:     ws,
		addr:   addr,
		log:    log,
		send:   make(chan chat.Event, buffer),
		closed: make(chan struct{}),
	}
}

// Send never blocks. After Close events are discarded.
func (c *wsConn) Send(ev chat.Event) bool {
	select {
	case <-c.closed:
		return true
	default:
	}

	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *wsConn) Close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *wsConn) writePump(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.log.Debug("ws write failed", "addr", c.addr, "err", err)
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("ws ping failed", "addr", c.addr, "err", err)
				c.Close()
				return
			}
		case <-c.closed:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

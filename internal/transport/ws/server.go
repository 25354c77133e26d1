package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/room-chat/internal/chat"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type Engine interface {
	Connect(ctx context.Context, p chat.Peer) error
	Join(ctx context.Context, p chat.Peer, req chat.JoinRequest) error
	Send(ctx context.Context, p chat.Peer, text string) error
	MarkSeen(ctx context.Context, p chat.Peer, code string, ids []string) error
	Typing(ctx context.Context, p chat.Peer) error
	StopTyping(ctx context.Context, p chat.Peer) error
	Disconnect(ctx context.Context, p chat.Peer) error
}

type Config struct {
	SendBuffer     int
	PingInterval   time.Duration
	MaxFrameBytes  int64
	RateBurst      int
	RateInterval   time.Duration
	AllowedOrigins []string
}

func (c *Config) setDefaults() {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = 64 << 10
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 20
	}
	if c.RateInterval <= 0 {
		c.RateInterval = time.Second
	}
}

type Server struct {
	upgrader websocket.Upgrader
	engine   Engine
	cfg      Config
	log      *slog.Logger
}

func NewServer(engine Engine, cfg Config) *Server {
	cfg.setDefaults()
	origins := newOriginPolicy(cfg.AllowedOrigins)

	return &Server{
		engine: engine,
		cfg:    cfg,
		log:    slog.Default().With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

// WS endpoint: GET /ws. Комната выбирается сообщением join, а не URL.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status
		s.log.Warn("ws upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}

	ctx := r.Context()
	c := newWsConn(ws, r.RemoteAddr, s.cfg.SendBuffer, s.log)
	if err := s.engine.Connect(ctx, c); err != nil {
		s.log.Warn("ws connect rejected", "addr", c.addr, "err", err)
		_ = ws.Close()
		return
	}

	go c.writePump(s.cfg.PingInterval)
	s.readPump(ctx, c)

	if err := s.engine.Disconnect(ctx, c); err != nil {
		s.log.Debug("ws disconnect failed", "addr", c.addr, "err", err)
	}
	c.Close()
}

func (s *Server) readPump(ctx context.Context, c *wsConn) {
	pongWait := 2 * s.cfg.PingInterval
	limiter := rate.NewLimiter(rate.Every(s.cfg.RateInterval/time.Duration(s.cfg.RateBurst)), s.cfg.RateBurst)

	c.ws.SetReadLimit(s.cfg.MaxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			s.logReadError(c, err)
			return
		}
		// сверх лимита кадры придерживаются, а не выбрасываются: порядок и содержимое сохраняются
		if err := limiter.Wait(ctx); err != nil {
			s.log.Debug("ws throttle aborted", "addr", c.addr, "err", err)
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		if err := s.dispatch(ctx, c, data); errors.Is(err, chat.ErrEngineStopped) || errors.Is(err, context.Canceled) {
			return
		}
	}
}

// dispatch routes one frame to the engine. Malformed frames are logged and
// skipped; the connection stays open.
func (s *Server) dispatch(ctx context.Context, c *wsConn, data []byte) error {
	var in inbound
	if err := decode(data, &in); err != nil {
		s.log.Debug("ws malformed frame", "addr", c.addr, "err", err)
		return nil
	}

	var err error
	switch in.Type {
	case chat.EventJoin:
		var p JoinPayload
		if err = decode(in.Payload, &p); err == nil {
			err = s.engine.Join(ctx, c, chat.JoinRequest{
				Code:      p.Code,
				Name:      p.Name,
				Email:     p.Email,
				AvatarURL: p.AvatarURL,
			})
		}
	case chat.EventMessage:
		var p MessagePayload
		if err = decode(in.Payload, &p); err == nil {
			err = s.engine.Send(ctx, c, p.Text)
		}
	case chat.EventMarkSeen:
		var p MarkSeenPayload
		if err = decode(in.Payload, &p); err == nil {
			err = s.engine.MarkSeen(ctx, c, p.Code, p.MessageIDs)
		}
	case chat.EventTyping:
		err = s.engine.Typing(ctx, c)
	case chat.EventStopTyping:
		err = s.engine.StopTyping(ctx, c)
	default:
		s.log.Debug("ws unknown event", "addr", c.addr, "type", in.Type)
		return nil
	}

	if err != nil {
		s.log.Debug("ws event failed", "addr", c.addr, "type", in.Type, "err", err)
	}
	return err
}

func (s *Server) logReadError(c *wsConn, err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Warn("ws frame too large", "addr", c.addr, "limit", s.cfg.MaxFrameBytes)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		s.log.Debug("ws client disconnected", "addr", c.addr)
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
		s.log.Info("ws unexpected close", "addr", c.addr, "err", err)
	default:
		s.log.Debug("ws read ended", "addr", c.addr, "err", err)
	}
}

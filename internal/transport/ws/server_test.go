package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/room-chat/internal/chat"
	"github.com/cwrk-planet/room-chat/internal/domain"
	"github.com/cwrk-planet/room-chat/internal/registry"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type env struct {
	engine *chat.Engine
	srv    *httptest.Server
	url    string
}

func newEnv(t *testing.T, cfg Config) *env {
	t.Helper()

	var n int
	reg := registry.New(registry.Options{NewCode: func() (string, error) {
		n++
		return "ROOMCOD" + string(rune('A'+n)), nil
	}})
	engine := chat.New(chat.Options{Registry: reg, TypingTimeout: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = engine.Run(ctx)
	}()

	srv := httptest.NewServer(http.HandlerFunc(NewServer(engine, cfg).HandleWS))
	t.Cleanup(func() {
		cancel()
		<-stopped
		srv.Close()
	})

	return &env{engine: engine, srv: srv, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (e *env) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(e.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

func read(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, c.ReadJSON(&f))
	return f
}

func join(t *testing.T, c *websocket.Conn, code, email string) registry.History {
	t.Helper()
	send(t, c, "join", map[string]string{"code": code, "name": email, "email": email})
	f := read(t, c)
	require.Equal(t, "history", f.Type)
	var h registry.History
	require.NoError(t, json.Unmarshal(f.Payload, &h))
	return h
}

func TestWS_ChatScenario(t *testing.T) {
	e := newEnv(t, Config{})
	ctx := context.Background()

	created, err := e.engine.CreateRoom(ctx, "a@x.com", "Team")
	require.NoError(t, err)
	_, err = e.engine.JoinRoom(ctx, created.Code, "b@y.com")
	require.NoError(t, err)

	a, b := e.dial(t), e.dial(t)
	h := join(t, a, created.Code, "a@x.com")
	assert.Equal(t, "Team", h.RoomName)
	assert.Equal(t, created.Code, h.Code)
	join(t, b, created.Code, "b@y.com")

	send(t, a, "message", map[string]string{"text": "hi"})
	var msg domain.Message
	for _, c := range []*websocket.Conn{a, b} {
		f := read(t, c)
		require.Equal(t, "message", f.Type)
		require.NoError(t, json.Unmarshal(f.Payload, &msg))
		assert.Equal(t, "hi", msg.Text)
		assert.Equal(t, domain.StatusSent, msg.Status)
		assert.Equal(t, "a@x.com", msg.Email)
	}

	send(t, b, "markSeen", map[string]any{"code": created.Code, "messageIds": []string{msg.ID}})
	for _, c := range []*websocket.Conn{a, b} {
		f := read(t, c)
		require.Equal(t, "messageSeen", f.Type)
		assert.JSONEq(t, `{"id":"`+msg.ID+`"}`, string(f.Payload))
	}

	late := join(t, e.dial(t), created.Code, "c@z.com")
	require.Len(t, late.Messages, 1)
	assert.Equal(t, domain.StatusSeen, late.Messages[0].Status)
}

func TestWS_JoinUnknownRoomKeepsConnection(t *testing.T) {
	e := newEnv(t, Config{})
	created, _ := e.engine.CreateRoom(context.Background(), "a@x.com", "Team")

	c := e.dial(t)
	send(t, c, "join", map[string]string{"code": "NOPE", "email": "a@x.com"})
	f := read(t, c)
	assert.Equal(t, "errorMsg", f.Type)
	assert.JSONEq(t, `{"text":"Room not found."}`, string(f.Payload))

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("{not json")))
	send(t, c, "bogus", nil)

	h := join(t, c, created.Code, "a@x.com")
	assert.Equal(t, "Team", h.RoomName)
}

func TestWS_BlankMessageReturnsError(t *testing.T) {
	e := newEnv(t, Config{})
	created, _ := e.engine.CreateRoom(context.Background(), "a@x.com", "Team")

	c := e.dial(t)
	join(t, c, created.Code, "a@x.com")

	send(t, c, "message", map[string]string{"text": "   "})
	f := read(t, c)
	assert.Equal(t, "errorMsg", f.Type)
	assert.JSONEq(t, `{"text":"Message is empty."}`, string(f.Payload))

	// соединение живо
	send(t, c, "message", map[string]string{"text": "ok"})
	assert.Equal(t, "message", read(t, c).Type)
}

func TestWS_BurstOverRateLimitIsThrottled(t *testing.T) {
	e := newEnv(t, Config{RateBurst: 3, RateInterval: 60 * time.Millisecond})
	created, _ := e.engine.CreateRoom(context.Background(), "a@x.com", "Team")

	c := e.dial(t)
	join(t, c, created.Code, "a@x.com")

	const total = 30
	for i := 0; i < total; i++ {
		send(t, c, "message", map[string]string{"text": fmt.Sprintf("m%02d", i)})
	}

	for i := 0; i < total; i++ {
		f := read(t, c)
		require.Equal(t, "message", f.Type)
		var msg domain.Message
		require.NoError(t, json.Unmarshal(f.Payload, &msg))
		assert.Equal(t, fmt.Sprintf("m%02d", i), msg.Text)
	}

	h := join(t, e.dial(t), created.Code, "b@y.com")
	assert.Len(t, h.Messages, total)
}

func TestWS_TypingExpiry(t *testing.T) {
	e := newEnv(t, Config{})
	created, _ := e.engine.CreateRoom(context.Background(), "a@x.com", "Team")

	a, b := e.dial(t), e.dial(t)
	join(t, a, created.Code, "a@x.com")
	join(t, b, created.Code, "b@y.com")

	send(t, a, "typing", nil)
	f := read(t, b)
	require.Equal(t, "peerTyping", f.Type)
	assert.JSONEq(t, `{"email":"a@x.com","name":"a@x.com"}`, string(f.Payload))

	f = read(t, b)
	require.Equal(t, "peerStopTyping", f.Type)
	assert.JSONEq(t, `{"email":"a@x.com"}`, string(f.Payload))
}

func TestWS_RoomDeletedEvent(t *testing.T) {
	e := newEnv(t, Config{})
	ctx := context.Background()
	created, _ := e.engine.CreateRoom(ctx, "a@x.com", "Team")

	c := e.dial(t)
	join(t, c, created.Code, "b@y.com")

	require.NoError(t, e.engine.DeleteRoom(ctx, created.Code, "a@x.com"))
	f := read(t, c)
	assert.Equal(t, "roomDeleted", f.Type)
	assert.JSONEq(t, `{"code":"`+created.Code+`"}`, string(f.Payload))
}

func TestWS_OriginPolicy(t *testing.T) {
	e := newEnv(t, Config{AllowedOrigins: []string{"https://chat.example.com"}})

	h := http.Header{}
	h.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(e.url, h)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	h.Set("Origin", "HTTPS://Chat.Example.com")
	c, _, err := websocket.DefaultDialer.Dial(e.url, h)
	require.NoError(t, err)
	_ = c.Close()
}

func TestWS_OversizedFrameClosesConnection(t *testing.T) {
	e := newEnv(t, Config{MaxFrameBytes: 128})
	c := e.dial(t)

	send(t, c, "message", map[string]string{"text": strings.Repeat("x", 1024)})
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
}

func TestNormalizeOrigin(t *testing.T) {
	got, ok := normalizeOrigin("HTTP://Example.COM:8080")
	assert.True(t, ok)
	assert.Equal(t, "http://example.com:8080", got)

	_, ok = normalizeOrigin("example.com")
	assert.False(t, ok)
}

package chat

import (
	"context"
	"strings"

	"github.com/cwrk-planet/room-chat/internal/presence"
)

const defaultTypingName = "Someone"

// Typing marks p's identity as typing in its room and re-arms the expiry.
// peerTyping goes to the other connections on every signal.
func (e *Engine) Typing(ctx context.Context, p Peer) error {
	return e.do(ctx, func() {
		sess := e.conns[p]
		if sess == nil || sess.Email == "" {
			return
		}
		e.typing.Start(sess.typingKey())

		name := sess.Name
		if strings.TrimSpace(name) == "" {
			name = defaultTypingName
		}
		e.broadcastOthers(sess.Code, sess.Email, Event{
			Type:    EventPeerTyping,
			Payload: PeerTypingPayload{Email: sess.Email, Name: name},
		})
	})
}

func (e *Engine) StopTyping(ctx context.Context, p Peer) error {
	return e.do(ctx, func() {
		if sess := e.conns[p]; sess != nil {
			e.stopTyping(sess)
		}
	})
}

// stopTyping announces peerStopTyping only on a typing -> idle transition.
func (e *Engine) stopTyping(sess *Session) {
	if sess.Email == "" || !e.typing.Stop(sess.typingKey()) {
		return
	}
	e.announceStop(sess.typingKey())
}

func (e *Engine) onTypingExpired(k presence.Key) {
	e.announceStop(k)
}

func (e *Engine) announceStop(k presence.Key) {
	e.broadcastOthers(k.Room, k.Identity, Event{
		Type:    EventPeerStopTyping,
		Payload: PeerStopTypingPayload{Email: k.Identity},
	})
}

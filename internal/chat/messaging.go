package chat

import (
	"context"
	"errors"

	"github.com/cwrk-planet/room-chat/internal/domain"
	"github.com/cwrk-planet/room-chat/internal/registry"
)

const emptyMessageText = "Message is empty."

// Send appends a message from p's session and echoes it to the whole room,
// sender included. Without a session it is a no-op. A rejected message is
// reported to p alone with an errorMsg event.
func (e *Engine) Send(ctx context.Context, p Peer, text string) error {
	var opErr error
	err := e.do(ctx, func() {
		sess := e.conns[p]
		if sess == nil {
			return
		}

		msg, err := e.reg.AppendMessage(sess.Code, registry.NewMessage{
			Name:      sess.Name,
			Email:     sess.Email,
			AvatarURL: sess.AvatarURL,
			Text:      text,
		})
		if err != nil {
			opErr = err
			e.deliver(p, errorEvent(sendErrorText(err)))
			return
		}
		e.log.Debug("message", "code", sess.Code, "id", msg.ID)

		e.broadcast(sess.Code, Event{Type: EventMessage, Payload: msg}, nil)
		e.stopTyping(sess)
	})
	if err != nil {
		return err
	}
	return opErr
}

// MarkSeen acknowledges messages on behalf of p's identity. code falls back to
// the bound room. Every message that flips to seen is announced to the room.
func (e *Engine) MarkSeen(ctx context.Context, p Peer, code string, ids []string) error {
	var opErr error
	err := e.do(ctx, func() {
		sess := e.conns[p]
		if sess == nil {
			return
		}
		if code == "" {
			code = sess.Code
		}

		flipped, err := e.reg.MarkSeen(code, sess.Email, ids)
		if err != nil {
			opErr = err
			return
		}
		for _, id := range flipped {
			e.broadcast(code, Event{Type: EventMessageSeen, Payload: MessageSeenPayload{ID: id}}, nil)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

func sendErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return roomNotFoundText
	case errors.Is(err, domain.ErrValidation):
		return emptyMessageText
	default:
		return "Message was not sent."
	}
}

package chat

import (
	"context"
	"errors"

	"github.com/cwrk-planet/room-chat/internal/domain"
	"github.com/cwrk-planet/room-chat/internal/presence"
)

const roomNotFoundText = "Room not found."

// Session is what a connection declared in its last successful join.
type Session struct {
	Code      string
	Name      string
	Email     string
	AvatarURL string
}

func (s *Session) typingKey() presence.Key {
	return presence.Key{Room: s.Code, Identity: s.Email}
}

type JoinRequest struct {
	Code      string
	Name      string
	Email     string
	AvatarURL string
}

// Connect registers a live connection that has not joined a room yet.
func (e *Engine) Connect(ctx context.Context, p Peer) error {
	return e.do(ctx, func() {
		if _, ok := e.conns[p]; !ok {
			e.conns[p] = nil
		}
	})
}

// Join binds p to the room and replies with the history snapshot. An unknown
// room is reported to p alone with an errorMsg event; the connection stays
// open.
func (e *Engine) Join(ctx context.Context, p Peer, req JoinRequest) error {
	return e.do(ctx, func() {
		if !e.reg.Exists(req.Code) {
			e.log.Debug("join to unknown room", "code", req.Code)
			e.deliver(p, errorEvent(roomNotFoundText))
			return
		}

		sess := &Session{
			Code:      req.Code,
			Name:      req.Name,
			Email:     domain.NormalizeIdentity(req.Email),
			AvatarURL: req.AvatarURL,
		}
		if prev := e.conns[p]; prev != nil && prev.typingKey() != sess.typingKey() {
			e.stopTyping(prev)
		}

		e.hub.bind(p, sess.Code)
		e.conns[p] = sess
		if _, err := e.reg.JoinRoom(sess.Code, sess.Email); err != nil {
			e.log.Error("join registered room", "code", sess.Code, "err", err)
			return
		}

		history, err := e.reg.History(sess.Code, sess.Email)
		if err != nil {
			e.log.Error("history of registered room", "code", sess.Code, "err", err)
			return
		}
		e.log.Info("peer joined", "code", sess.Code, "email", sess.Email)
		e.deliver(p, Event{Type: EventHistory, Payload: history})
	})
}

// Disconnect forgets p. Participation in the room is kept; only the binding
// and the typing state go away.
func (e *Engine) Disconnect(ctx context.Context, p Peer) error {
	err := e.do(ctx, func() { e.forget(p) })
	if errors.Is(err, ErrEngineStopped) {
		return nil
	}
	return err
}

func (e *Engine) forget(p Peer) {
	sess, ok := e.conns[p]
	if !ok {
		return
	}
	delete(e.conns, p)
	e.hub.unbind(p)
	if sess != nil {
		e.stopTyping(sess)
	}
}

// deliver sends ev to one peer; a peer that cannot keep up is dropped.
func (e *Engine) deliver(p Peer, ev Event) {
	if p.Send(ev) {
		return
	}
	e.dropSlow(p)
}

// broadcast fans ev out to everyone bound to code. skip, when set, filters
// recipients out.
func (e *Engine) broadcast(code string, ev Event, skip func(Peer) bool) {
	var slow []Peer
	for p := range e.hub.members(code) {
		if skip != nil && skip(p) {
			continue
		}
		if !p.Send(ev) {
			slow = append(slow, p)
		}
	}
	for _, p := range slow {
		e.dropSlow(p)
	}
}

// broadcastOthers skips every connection of identity.
func (e *Engine) broadcastOthers(code, identity string, ev Event) {
	e.broadcast(code, ev, func(p Peer) bool {
		s := e.conns[p]
		return s != nil && s.Email == identity
	})
}

func (e *Engine) dropSlow(p Peer) {
	if _, ok := e.conns[p]; !ok {
		return
	}
	e.log.Warn("dropping slow consumer", "code", e.hub.room(p))
	e.forget(p)
	p.Close()
}

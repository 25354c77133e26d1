package chat

import (
	"context"

	"github.com/cwrk-planet/room-chat/internal/domain"
	"github.com/cwrk-planet/room-chat/internal/presence"
	"github.com/cwrk-planet/room-chat/internal/registry"
)

// Операции жизненного цикла комнаты. Все идут через цикл движка, поэтому
// HTTP-вызовы упорядочены с событиями real-time канала.

func (e *Engine) CreateRoom(ctx context.Context, owner, name string) (registry.Created, error) {
	return call(ctx, e, func() (registry.Created, error) {
		created, err := e.reg.CreateRoom(owner, name)
		if err != nil {
			return created, err
		}
		if created.Replaced {
			e.log.Warn("room code collision, previous room dropped", "code", created.Code)
			e.roomGone(created.Code)
		}
		e.log.Info("room created", "code", created.Code, "owner", domain.NormalizeIdentity(owner))

		return created, nil
	})
}

func (e *Engine) JoinRoom(ctx context.Context, code, identity string) (string, error) {
	return call(ctx, e, func() (string, error) {
		return e.reg.JoinRoom(code, identity)
	})
}

// RenameRoom returns the stored (truncated) name and tells the room about it.
func (e *Engine) RenameRoom(ctx context.Context, code, name string) (string, error) {
	return call(ctx, e, func() (string, error) {
		canonical, err := e.reg.RenameRoom(code, name)
		if err != nil {
			return "", err
		}
		e.broadcast(code, Event{Type: EventRoomRenamed, Payload: RoomRenamedPayload{RoomName: canonical}}, nil)

		return canonical, nil
	})
}

func (e *Engine) LeaveRoom(ctx context.Context, code, identity string) error {
	_, err := call(ctx, e, func() (struct{}, error) {
		deleted, err := e.reg.LeaveRoom(code, identity)
		if err != nil {
			return struct{}{}, err
		}
		if deleted {
			e.log.Info("room emptied", "code", code)
			e.roomGone(code)
			return struct{}{}, nil
		}

		k := presence.Key{Room: code, Identity: domain.NormalizeIdentity(identity)}
		if e.typing.Stop(k) {
			e.announceStop(k)
		}
		return struct{}{}, nil
	})
	return err
}

func (e *Engine) DeleteRoom(ctx context.Context, code, requester string) error {
	_, err := call(ctx, e, func() (struct{}, error) {
		if err := e.reg.DeleteRoom(code, requester); err != nil {
			return struct{}{}, err
		}
		e.log.Info("room deleted", "code", code)
		e.roomGone(code)
		return struct{}{}, nil
	})
	return err
}

func (e *Engine) ListMyRooms(ctx context.Context, identity string) ([]domain.RoomSummary, error) {
	return call(ctx, e, func() ([]domain.RoomSummary, error) {
		return e.reg.ListMyRooms(identity), nil
	})
}

// roomGone notifies the group of code, unbinds it and resets the sessions
// that pointed at it. Connections stay open and may join another room.
func (e *Engine) roomGone(code string) {
	e.broadcast(code, Event{Type: EventRoomDeleted, Payload: RoomDeletedPayload{Code: code}}, nil)
	e.typing.ClearRoom(code)

	for p := range e.hub.drop(code) {
		if _, ok := e.conns[p]; ok {
			e.conns[p] = nil
		}
	}
}

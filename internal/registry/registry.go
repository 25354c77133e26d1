// Package registry owns rooms, their messages and the reverse index from
// identity to room codes.
//
// A Registry is not safe for concurrent use. It is meant to be owned by a
// single goroutine (see chat.Engine) which serialises every call.
package registry

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cwrk-planet/room-chat/internal/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const defaultSenderName = "Anonymous"

type Options struct {
	Now     func() time.Time
	NewCode func() (string, error)
	NewID   func() string
}

type Registry struct {
	rooms     map[string]*domain.Room
	userRooms map[string]map[string]struct{} // identity -> set of codes

	now     func() time.Time
	newCode func() (string, error)
	newID   func() string
}

func New(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.NewCode == nil {
		panic("registry: NewCode is required")
	}

	return &Registry{
		rooms:     make(map[string]*domain.Room),
		userRooms: make(map[string]map[string]struct{}),
		now:       opts.Now,
		newCode:   opts.NewCode,
		newID:     opts.NewID,
	}
}

// Created describes a freshly created room. Replaced is set when the generated
// code collided with a live room, which was dropped in favour of the new one.
type Created struct {
	Code     string
	RoomName string
	Replaced bool
}

func (r *Registry) CreateRoom(owner, name string) (Created, error) {
	code, err := r.newCode()
	if err != nil {
		return Created{}, fmt.Errorf("generate room code: %w", err)
	}

	_, replaced := r.rooms[code]
	if replaced {
		r.removeRoom(code)
	}

	owner = domain.NormalizeIdentity(owner)
	room := &domain.Room{
		Code:         code,
		Name:         domain.Truncate(name, domain.MaxRoomNameLength),
		Owner:        owner,
		CreatedAt:    r.now(),
		Participants: make(map[string]struct{}),
	}
	r.rooms[code] = room
	r.attach(room, owner)

	return Created{Code: code, RoomName: room.Name, Replaced: replaced}, nil
}

// JoinRoom is idempotent; an empty identity only checks that the room exists.
func (r *Registry) JoinRoom(code, identity string) (string, error) {
	room, err := r.room(code)
	if err != nil {
		return "", err
	}
	r.attach(room, domain.NormalizeIdentity(identity))

	return room.Name, nil
}

func (r *Registry) RenameRoom(code, name string) (string, error) {
	room, err := r.room(code)
	if err != nil {
		return "", err
	}
	room.Name = domain.Truncate(name, domain.MaxRoomNameLength)

	return room.Name, nil
}

// LeaveRoom removes identity from the room and reports whether the room was
// deleted because nobody is left.
func (r *Registry) LeaveRoom(code, identity string) (bool, error) {
	room, err := r.room(code)
	if err != nil {
		return false, err
	}
	identity = domain.NormalizeIdentity(identity)
	if identity == "" {
		return false, domain.ErrMissingIdentity
	}

	r.detach(room, identity)
	if len(room.Participants) > 0 {
		return false, nil
	}
	r.removeRoom(code)

	return true, nil
}

func (r *Registry) DeleteRoom(code, requester string) error {
	room, err := r.room(code)
	if err != nil {
		return err
	}
	requester = domain.NormalizeIdentity(requester)
	if requester == "" || room.Owner != requester {
		return domain.ErrForbidden
	}
	r.removeRoom(code)

	return nil
}

// ListMyRooms returns the rooms identity participates in, most recent first.
func (r *Registry) ListMyRooms(identity string) []domain.RoomSummary {
	identity = domain.NormalizeIdentity(identity)

	out := lo.FilterMap(lo.Keys(r.userRooms[identity]), func(code string, _ int) (domain.RoomSummary, bool) {
		room, ok := r.rooms[code]
		if !ok {
			return domain.RoomSummary{}, false
		}
		return domain.RoomSummary{
			Code:          room.Code,
			RoomName:      room.Name,
			CreatedAt:     room.CreatedAt.UnixMilli(),
			LastMessageAt: room.LastActivity().UnixMilli(),
			IsOwner:       identity != "" && room.Owner == identity,
		}, true
	})

	slices.SortFunc(out, func(a, b domain.RoomSummary) int {
		if a.LastMessageAt != b.LastMessageAt {
			if a.LastMessageAt > b.LastMessageAt {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Code, b.Code)
	})

	return out
}

func (r *Registry) Exists(code string) bool {
	_, ok := r.rooms[code]
	return ok
}

func (r *Registry) RoomCount() int {
	return len(r.rooms)
}

// Participants returns a sorted copy of the participant set.
func (r *Registry) Participants(code string) ([]string, error) {
	room, err := r.room(code)
	if err != nil {
		return nil, err
	}
	out := lo.Keys(room.Participants)
	slices.Sort(out)

	return out, nil
}

func (r *Registry) room(code string) (*domain.Room, error) {
	if code == "" {
		return nil, domain.ErrRoomNotFound
	}
	room, ok := r.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// attach и detach держат participants и userRooms симметричными.
func (r *Registry) attach(room *domain.Room, identity string) {
	if identity == "" {
		return
	}
	room.Participants[identity] = struct{}{}

	set, ok := r.userRooms[identity]
	if !ok {
		set = make(map[string]struct{})
		r.userRooms[identity] = set
	}
	set[room.Code] = struct{}{}
}

func (r *Registry) detach(room *domain.Room, identity string) {
	delete(room.Participants, identity)

	if set, ok := r.userRooms[identity]; ok {
		delete(set, room.Code)
		if len(set) == 0 {
			delete(r.userRooms, identity)
		}
	}
}

// removeRoom purges the code from every identity, not only the participants.
func (r *Registry) removeRoom(code string) {
	delete(r.rooms, code)
	for identity, set := range r.userRooms {
		delete(set, code)
		if len(set) == 0 {
			delete(r.userRooms, identity)
		}
	}
}

package registry

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/room-chat/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry(t *testing.T) (*Registry, *fakeClock) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	var codes, ids int
	reg := New(Options{
		Now: clock.Now,
		NewCode: func() (string, error) {
			codes++
			return fmt.Sprintf("CODE%04d", codes), nil
		},
		NewID: func() string {
			ids++
			return fmt.Sprintf("m%d", ids)
		},
	})
	t.Cleanup(func() { requireSymmetric(t, reg) })

	return reg, clock
}

// requireSymmetric checks that participants and the user index agree.
func requireSymmetric(t *testing.T, r *Registry) {
	t.Helper()

	for code, room := range r.rooms {
		for identity := range room.Participants {
			_, ok := r.userRooms[identity][code]
			require.True(t, ok, "participant %s of %s missing from index", identity, code)
		}
	}
	for identity, set := range r.userRooms {
		require.NotEmpty(t, set, "empty index entry for %s", identity)
		for code := range set {
			room, ok := r.rooms[code]
			require.True(t, ok, "index of %s points at deleted room %s", identity, code)
			_, ok = room.Participants[identity]
			require.True(t, ok, "index of %s lists %s without membership", identity, code)
		}
	}
}

func TestCreateRoom_ListedAsOwner(t *testing.T) {
	reg, _ := newTestRegistry(t)

	created, err := reg.CreateRoom("A@X.com", "Team")
	require.NoError(t, err)
	assert.Equal(t, "Team", created.RoomName)
	assert.False(t, created.Replaced)

	rooms := reg.ListMyRooms("a@x.com")
	require.Len(t, rooms, 1)
	assert.Equal(t, created.Code, rooms[0].Code)
	assert.True(t, rooms[0].IsOwner)
	assert.Equal(t, rooms[0].CreatedAt, rooms[0].LastMessageAt)
}

func TestCreateRoom_TruncatesName(t *testing.T) {
	reg, _ := newTestRegistry(t)

	created, err := reg.CreateRoom("a@x.com", strings.Repeat("n", 200))
	require.NoError(t, err)
	assert.Len(t, created.RoomName, domain.MaxRoomNameLength)
}

func TestCreateRoom_Anonymous(t *testing.T) {
	reg, _ := newTestRegistry(t)

	created, err := reg.CreateRoom("", "")
	require.NoError(t, err)
	assert.True(t, reg.Exists(created.Code))
	assert.Empty(t, reg.userRooms)
}

func TestCreateRoom_CollisionOverwrites(t *testing.T) {
	reg := New(Options{NewCode: func() (string, error) { return "SAMECODE", nil }})

	_, err := reg.CreateRoom("a@x.com", "first")
	require.NoError(t, err)
	created, err := reg.CreateRoom("b@y.com", "second")
	require.NoError(t, err)

	assert.True(t, created.Replaced)
	assert.Empty(t, reg.ListMyRooms("a@x.com"))
	assert.Len(t, reg.ListMyRooms("b@y.com"), 1)
	requireSymmetric(t, reg)
}

func TestCreateRoom_CodeError(t *testing.T) {
	reg := New(Options{NewCode: func() (string, error) { return "", errors.New("no entropy") }})

	_, err := reg.CreateRoom("a@x.com", "x")
	require.Error(t, err)
	assert.Equal(t, 0, reg.RoomCount())
}

func TestJoinRoom(t *testing.T) {
	reg, _ := newTestRegistry(t)
	created, _ := reg.CreateRoom("a@x.com", "Team")

	name, err := reg.JoinRoom(created.Code, "B@y.com")
	require.NoError(t, err)
	assert.Equal(t, "Team", name)

	once, _ := reg.Participants(created.Code)
	_, err = reg.JoinRoom(created.Code, "b@y.com")
	require.NoError(t, err)
	twice, _ := reg.Participants(created.Code)

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, twice)

	_, err = reg.JoinRoom("missing", "b@y.com")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = reg.JoinRoom("", "b@y.com")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRenameRoom(t *testing.T) {
	reg, _ := newTestRegistry(t)
	created, _ := reg.CreateRoom("a@x.com", "Team")

	name, err := reg.RenameRoom(created.Code, strings.Repeat("x", 100))
	require.NoError(t, err)
	assert.Len(t, name, domain.MaxRoomNameLength)

	_, err = reg.RenameRoom("missing", "x")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestLeaveRoom_LastParticipantDeletes(t *testing.T) {
	reg, _ := newTestRegistry(t)
	created, _ := reg.CreateRoom("a@x.com", "Team")
	_, _ = reg.JoinRoom(created.Code, "b@y.com")

	deleted, err := reg.LeaveRoom(created.Code, "b@y.com")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, reg.ListMyRooms("b@y.com"))

	deleted, err = reg.LeaveRoom(created.Code, " A@x.com ")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, reg.Exists(created.Code))
	assert.Empty(t, reg.ListMyRooms("a@x.com"))
}

func TestLeaveRoom_Errors(t *testing.T) {
	reg, _ := newTestRegistry(t)
	created, _ := reg.CreateRoom("a@x.com", "Team")

	_, err := reg.LeaveRoom("missing", "a@x.com")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = reg.LeaveRoom(created.Code, "  ")
	assert.ErrorIs(t, err, domain.ErrMissingIdentity)
	assert.True(t, reg.Exists(created.Code))
}

func TestDeleteRoom_OwnerOnly(t *testing.T) {
	reg, _ := newTestRegistry(t)
	created, _ := reg.CreateRoom("a@x.com", "Team")
	_, _ = reg.JoinRoom(created.Code, "b@y.com")

	err := reg.DeleteRoom(created.Code, "b@y.com")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Len(t, reg.ListMyRooms("a@x.com"), 1)

	err = reg.DeleteRoom(created.Code, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, reg.DeleteRoom(created.Code, "A@X.COM"))
	assert.False(t, reg.Exists(created.Code))
	assert.Empty(t, reg.ListMyRooms("a@x.com"))
	assert.Empty(t, reg.ListMyRooms("b@y.com"))

	assert.ErrorIs(t, reg.DeleteRoom(created.Code, "a@x.com"), domain.ErrRoomNotFound)
}

func TestListMyRooms_SortedByRecency(t *testing.T) {
	reg, clock := newTestRegistry(t)

	first, _ := reg.CreateRoom("a@x.com", "first")
	clock.Advance(time.Minute)
	second, _ := reg.CreateRoom("a@x.com", "second")
	clock.Advance(time.Minute)
	_, err := reg.AppendMessage(first.Code, NewMessage{Email: "a@x.com", Text: "bump"})
	require.NoError(t, err)

	rooms := reg.ListMyRooms("a@x.com")
	require.Len(t, rooms, 2)
	assert.Equal(t, first.Code, rooms[0].Code)
	assert.Equal(t, second.Code, rooms[1].Code)
	assert.Equal(t, clock.t.UnixMilli(), rooms[0].LastMessageAt)

	assert.Empty(t, reg.ListMyRooms("nobody@x.com"))
}

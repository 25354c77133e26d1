package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/room-chat/internal/avatar"
	"github.com/cwrk-planet/room-chat/internal/chat"
	"github.com/cwrk-planet/room-chat/internal/domain"
	"github.com/cwrk-planet/room-chat/internal/registry"
	"github.com/cwrk-planet/room-chat/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

type Lifecycle interface {
	CreateRoom(ctx context.Context, owner, name string) (registry.Created, error)
	JoinRoom(ctx context.Context, code, identity string) (string, error)
	RenameRoom(ctx context.Context, code, name string) (string, error)
	LeaveRoom(ctx context.Context, code, identity string) error
	DeleteRoom(ctx context.Context, code, requester string) error
	ListMyRooms(ctx context.Context, identity string) ([]domain.RoomSummary, error)
	Stats(ctx context.Context) (chat.Stats, error)
}

type Avatars interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
	Open(ctx context.Context, id string) (avatar.Blob, error)
	MaxBytes() int64
}

type Handler struct {
	rooms   Lifecycle
	avatars Avatars
}

func NewHandler(rooms Lifecycle, avatars Avatars) *Handler {
	return &Handler{rooms: rooms, avatars: avatars}
}

// POST /api/create-room
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	created, err := h.rooms.CreateRoom(r.Context(), req.Email, req.RoomName)
	if err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, CreateRoomResponse{Code: created.Code, RoomName: created.RoomName})
}

// POST /api/join-room
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	name, err := h.rooms.JoinRoom(r.Context(), req.Code, req.Email)
	if err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, RoomNameResponse{OK: true, RoomName: name})
}

// POST /api/rename-room
func (h *Handler) RenameRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	name, err := h.rooms.RenameRoom(r.Context(), req.Code, req.RoomName)
	if err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, RoomNameResponse{OK: true, RoomName: name})
}

// POST /api/leave-room
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	if err := h.rooms.LeaveRoom(r.Context(), req.Code, req.Email); err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, OKResponse{OK: true})
}

// POST /api/delete-room
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	if err := h.rooms.DeleteRoom(r.Context(), req.Code, req.Email); err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, OKResponse{OK: true})
}

// GET /api/my-rooms?email=
func (h *Handler) ListMyRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListMyRooms(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	if rooms == nil {
		rooms = []domain.RoomSummary{}
	}
	httputil.JSON(w, http.StatusOK, rooms)
}

// GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rooms.Stats(r.Context())
	if err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, stats)
}

// multipartOverhead: запас на заголовки multipart поверх самой картинки.
const multipartOverhead = 64 << 10

// POST /api/avatar (multipart, поле "avatar")
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.avatars.MaxBytes()+multipartOverhead)

	file, _, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			err = avatar.ErrTooLarge
		default:
			err = avatar.ErrEmpty
		}
		httputil.Error(r.Context(), w, err)
		return
	}
	defer file.Close()

	url, err := h.avatars.Upload(r.Context(), file)
	if err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, AvatarResponse{URL: url})
}

// GET /avatars/{id}
func (h *Handler) ServeAvatar(w http.ResponseWriter, r *http.Request) {
	blob, err := h.avatars.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	// id это хеш содержимого, картинка по нему не меняется
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

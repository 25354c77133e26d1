package http

// Тела запросов Lifecycle API. Поля совпадают с тем, что шлёт веб-клиент.

type CreateRoomRequest struct {
	Email    string `json:"email"`
	RoomName string `json:"roomName"`
}

type CreateRoomResponse struct {
	Code     string `json:"code"`
	RoomName string `json:"roomName"`
}

type RoomRequest struct {
	Code     string `json:"code"`
	Email    string `json:"email"`
	RoomName string `json:"roomName"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// RoomNameResponse отдаётся join-room и rename-room; roomName есть всегда, даже пустой.
type RoomNameResponse struct {
	OK       bool   `json:"ok"`
	RoomName string `json:"roomName"`
}

type AvatarResponse struct {
	URL string `json:"url"`
}

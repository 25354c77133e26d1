package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxRoomNameLength = 80
	MaxMessageLength  = 2000
)

type Room struct {
	Code         string
	Name         string
	Owner        string
	CreatedAt    time.Time
	Messages     []*Message
	Participants map[string]struct{}
}

// LastActivity возвращает время последнего сообщения или создания комнаты, если сообщений нет.
func (r *Room) LastActivity() time.Time {
	if n := len(r.Messages); n > 0 {
		return r.Messages[n-1].CreatedAt
	}
	return r.CreatedAt
}

// RoomSummary is one entry of the "my rooms" listing.
type RoomSummary struct {
	Code          string `json:"code"`
	RoomName      string `json:"roomName"`
	CreatedAt     int64  `json:"createdAt"`
	LastMessageAt int64  `json:"lastMessageAt"`
	IsOwner       bool   `json:"isOwner"`
}

// NormalizeIdentity lowercases and trims a self-asserted email.
func NormalizeIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Truncate cuts s to at most n runes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

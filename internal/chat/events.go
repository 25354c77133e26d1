package chat

import "github.com/cwrk-planet/room-chat/internal/registry"

// Типы событий real-time канала. join, message, markSeen, typing и
// stopTyping приходят от клиента; message уходит обратно всем в комнате.
const (
	EventJoin       = "join"
	EventMessage    = "message"
	EventMarkSeen   = "markSeen"
	EventTyping     = "typing"
	EventStopTyping = "stopTyping"

	EventHistory        = "history"
	EventMessageSeen    = "messageSeen"
	EventRoomRenamed    = "roomRenamed"
	EventRoomDeleted    = "roomDeleted"
	EventPeerTyping     = "peerTyping"
	EventPeerStopTyping = "peerStopTyping"
	EventError          = "errorMsg"
)

// Event is the envelope of every frame. Payload values are immutable once
// handed to a Peer.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type HistoryPayload = registry.History

type MessageSeenPayload struct {
	ID string `json:"id"`
}

type RoomRenamedPayload struct {
	RoomName string `json:"roomName"`
}

type RoomDeletedPayload struct {
	Code string `json:"code"`
}

type PeerTypingPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type PeerStopTypingPayload struct {
	Email string `json:"email"`
}

type ErrorPayload struct {
	Text string `json:"text"`
}

func errorEvent(text string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Text: text}}
}

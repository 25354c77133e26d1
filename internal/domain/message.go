package domain

import "time"

type Status string

const (
	StatusSent Status = "sent"
	StatusSeen Status = "seen"
)

type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Text      string    `json:"text"`
	TS        int64     `json:"ts"`
	AvatarURL string    `json:"avatarUrl"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"-"`

	// SeenBy never includes the sender.
	SeenBy map[string]struct{} `json:"-"`
}

// Snapshot returns a copy safe to hand to other goroutines for encoding.
func (m *Message) Snapshot() Message {
	cp := *m
	cp.SeenBy = nil
	return cp
}

// SeenByViewer reports whether viewer has acknowledged the message.
func (m *Message) SeenByViewer(viewer string) bool {
	_, ok := m.SeenBy[viewer]
	return ok
}

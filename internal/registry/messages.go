package registry

import (
	"strings"

	"github.com/cwrk-planet/room-chat/internal/domain"

	"github.com/samber/lo"
)

// NewMessage carries the sender context of an outgoing message.
type NewMessage struct {
	Name      string
	Email     string
	AvatarURL string
	Text      string
}

// History is the snapshot a connection receives after joining.
type History struct {
	RoomName     string           `json:"roomName"`
	Messages     []domain.Message `json:"messages"`
	Code         string           `json:"code"`
	UnseenForYou int              `json:"unseenForYou"`
}

// AppendMessage stores a message at the end of the room sequence and returns
// its snapshot. Blank text is rejected with ErrValidation.
func (r *Registry) AppendMessage(code string, in NewMessage) (domain.Message, error) {
	room, err := r.room(code)
	if err != nil {
		return domain.Message{}, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return domain.Message{}, domain.ErrValidation
	}

	name := in.Name
	if strings.TrimSpace(name) == "" {
		name = defaultSenderName
	}
	email := domain.NormalizeIdentity(in.Email)
	now := r.now()

	msg := &domain.Message{
		ID:        r.newID(),
		Name:      name,
		Email:     email,
		Text:      domain.Truncate(in.Text, domain.MaxMessageLength),
		TS:        now.UnixMilli(),
		AvatarURL: in.AvatarURL,
		Status:    domain.StatusSent,
		CreatedAt: now,
		SeenBy:    make(map[string]struct{}),
	}
	room.Messages = append(room.Messages, msg)
	r.attach(room, email)

	return msg.Snapshot(), nil
}

// MarkSeen records viewer's acknowledgement for each id and returns the ids
// whose status flipped from sent to seen by this call. Unknown ids, own
// messages and repeated acknowledgements are ignored.
func (r *Registry) MarkSeen(code, viewer string, ids []string) ([]string, error) {
	room, err := r.room(code)
	if err != nil {
		return nil, err
	}
	viewer = domain.NormalizeIdentity(viewer)
	if viewer == "" {
		return nil, domain.ErrMissingIdentity
	}

	wanted := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })

	var flipped []string
	for _, m := range room.Messages {
		if _, ok := wanted[m.ID]; !ok {
			continue
		}
		if m.Email == viewer || m.SeenByViewer(viewer) {
			continue
		}
		m.SeenBy[viewer] = struct{}{}
		if m.Status != domain.StatusSeen {
			m.Status = domain.StatusSeen
			flipped = append(flipped, m.ID)
		}
	}

	return flipped, nil
}

// History returns the full ordered message sequence plus the number of
// messages from others that viewer has not acknowledged.
func (r *Registry) History(code, viewer string) (History, error) {
	room, err := r.room(code)
	if err != nil {
		return History{}, err
	}
	viewer = domain.NormalizeIdentity(viewer)

	msgs := lo.Map(room.Messages, func(m *domain.Message, _ int) domain.Message { return m.Snapshot() })
	unseen := lo.CountBy(room.Messages, func(m *domain.Message) bool {
		return m.Email != viewer && !m.SeenByViewer(viewer)
	})

	return History{
		RoomName:     room.Name,
		Messages:     msgs,
		Code:         room.Code,
		UnseenForYou: unseen,
	}, nil
}

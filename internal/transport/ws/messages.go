package ws

import "encoding/json"

// inbound: входящий кадр; payload разбирается после того, как известен type.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

type MessagePayload struct {
	Text string `json:"text"`
}

type MarkSeenPayload struct {
	Code       string   `json:"code"`
	MessageIDs []string `json:"messageIds"`
}

// decode tolerates a missing payload: typing and stopTyping carry none.
func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

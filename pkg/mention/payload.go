package mention

import (
	"encoding/json"
	"strconv"
)

// Chat identifies the destination chat: a numeric chat ID, or a public
// @username. Exactly one field should be set.
type Chat struct {
	ID       int64
	Username string
}

// MarshalJSON renders the chat the way the Bot API expects chat_id: a JSON
// number for IDs, a string for usernames.
func (c Chat) MarshalJSON() ([]byte, error) {
	if c.Username != "" {
		return json.Marshal(c.Username)
	}
	return []byte(strconv.FormatInt(c.ID, 10)), nil
}

func (c *Chat) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		*c = Chat{ID: id}
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*c = Chat{Username: name}
	return nil
}

// Mention is one text_mention entity. Offset and Length are UTF-16 code
// units; Length is always 1 because each mention covers a single marker.
type Mention struct {
	Offset int
	Length int
	UserID int64
}

type mentionJSON struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	User   struct {
		ID int64 `json:"id"`
	} `json:"user"`
}

func (m Mention) MarshalJSON() ([]byte, error) {
	j := mentionJSON{Type: "text_mention", Offset: m.Offset, Length: m.Length}
	j.User.ID = m.UserID
	return json.Marshal(j)
}

func (m *Mention) UnmarshalJSON(data []byte) error {
	var j mentionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*m = Mention{Offset: j.Offset, Length: j.Length, UserID: j.User.ID}
	return nil
}

// Payload is one ready-to-send message: assembled text plus its mention
// entities, in recipient order.
type Payload struct {
	Chat     Chat      `json:"chat_id"`
	Text     string    `json:"text"`
	Mentions []Mention `json:"entities"`
}

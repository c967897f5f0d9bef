package chatexport

import (
	"encoding/json"
	"time"
)

// FragmentTypeRequest marks a fragment written by the user
const FragmentTypeRequest = "REQUEST"

// Conversation is one element of the exported conversations array
type Conversation struct {
	ID         string
	Title      string
	InsertedAt Timestamp
	UpdatedAt  Timestamp
	Mapping    json.RawMessage // Decoded lazily by Extract
	Raw        json.RawMessage // Source JSON of the element, for diagnostics
}

// SortTime returns updated_at, falling back to inserted_at
func (c *Conversation) SortTime() (time.Time, bool) {
	if c.UpdatedAt.Valid {
		return c.UpdatedAt.Time, true
	}
	if c.InsertedAt.Valid {
		return c.InsertedAt.Time, true
	}
	return time.Time{}, false
}

// NodeMap maps node ids to nodes. The entry "root" anchors the tree.
type NodeMap map[string]Node

// Node is a single entry of a conversation mapping
type Node struct {
	Message  *Message `json:"message"`
	Children []string `json:"children"`
}

// Message holds the fragments of one node
type Message struct {
	InsertedAt Timestamp  `json:"inserted_at"`
	Fragments  []Fragment `json:"fragments"`
}

// Fragment is one piece of a message. Request fragments are user turns,
// anything else is an assistant turn.
type Fragment struct {
	Type    string `json:"type"`
	Content Text   `json:"content"`
}

// IsRequest reports whether the fragment is a user turn
func (f Fragment) IsRequest() bool {
	return f.Type == FragmentTypeRequest
}

// Text is a string field that tolerates non-string JSON values
type Text string

// UnmarshalJSON decodes strings as-is and everything else as ""
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Text(s)
	return nil
}

// rawConversation mirrors the JSON layout of an export element
type rawConversation struct {
	ID         Text            `json:"id"`
	Title      Text            `json:"title"`
	InsertedAt Timestamp       `json:"inserted_at"`
	UpdatedAt  Timestamp       `json:"updated_at"`
	Mapping    json.RawMessage `json:"mapping"`
}

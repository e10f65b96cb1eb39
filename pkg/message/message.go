package message

import (
	"maps"
	"time"
)

// Message is a notification record produced for a triggering event.
// A message with an empty ID has not been persisted yet.
type Message struct {
	ID        string         `json:"id"`
	Template  string         `json:"template"`
	OwnerID   int64          `json:"owner_id"`
	Fields    map[string]any `json:"fields,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	// Original points at the message this one was cloned from. Never persisted.
	Original *Message `json:"-"`
}

// IsNew reports whether the message has not been saved.
func (m *Message) IsNew() bool {
	return m.ID == ""
}

// Clone returns an unsaved copy that keeps a back-reference to m.
// Field values are copied shallowly so per-recipient changes do not leak into m.
func (m *Message) Clone() *Message {
	return &Message{
		Template: m.Template,
		OwnerID:  m.OwnerID,
		Fields:   maps.Clone(m.Fields),
		Original: m,
	}
}

// Field returns a string field value, or "" when absent.
func (m *Message) Field(name string) string {
	if v, ok := m.Fields[name].(string); ok {
		return v
	}
	return ""
}

// SetField sets a field value, allocating the field map when needed.
func (m *Message) SetField(name string, value any) {
	if m.Fields == nil {
		m.Fields = make(map[string]any)
	}
	m.Fields[name] = value
}

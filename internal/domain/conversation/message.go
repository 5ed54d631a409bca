package conversation

import (
	"fmt"
	"time"
)

// Role identifies who authored a turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool { return r == RoleUser || r == RoleAssistant }

// Message is one turn of the chat log.
type Message struct {
	id          string
	role        Role
	text        string
	sourceCount int
	createdAt   time.Time
}

// New validates and creates a message.
func New(id string, role Role, text string, sourceCount int, createdAt time.Time) (Message, error) {
	if id == "" {
		return Message{}, fmt.Errorf("message ID is required")
	}
	if !role.IsValid() {
		return Message{}, fmt.Errorf("invalid role: %q", role)
	}
	if sourceCount < 0 {
		sourceCount = 0
	}
	return Message{id: id, role: role, text: text, sourceCount: sourceCount, createdAt: createdAt}, nil
}

// ID returns the message identifier.
func (m *Message) ID() string { return m.id }

// Role returns the author role.
func (m *Message) Role() Role { return m.role }

// Text returns the message body.
func (m *Message) Text() string { return m.text }

// SourceCount returns how many documents backed an assistant answer.
func (m *Message) SourceCount() int { return m.sourceCount }

// CreatedAt returns the append time.
func (m *Message) CreatedAt() time.Time { return m.createdAt }

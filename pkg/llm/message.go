// Package llm holds the chat types shared by the CLI, the web widget and
// transcript storage.
package llm

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Role is the author of a ChatMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is one entry of a transcript. Messages are never modified
// after creation.
type ChatMessage struct {
	// ID is a ULID, so IDs sort in creation order.
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Failed marks an assistant message that stands in for an error.
	Failed bool `json:"failed,omitempty"`
}

// NewChatMessage stamps a new message with a ULID and the current time.
func NewChatMessage(role Role, content string) ChatMessage {
	now := time.Now().UTC()
	return ChatMessage{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
}

// ErrorResponse is the JSON error body of the web API.
type ErrorResponse struct {
	Error string `json:"error"`
}

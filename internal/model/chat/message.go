package chat

import "time"

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message persists individual turns of a conversation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId,omitempty"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	HTML      bool      `json:"html,omitempty"` // Content is sanitized markup
	CreatedAt time.Time `json:"createdAt"`
}

// IsBot reports whether the message came from the assistant.
func (m Message) IsBot() bool {
	return m.Sender == SenderBot
}

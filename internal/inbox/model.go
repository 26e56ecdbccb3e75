package inbox

import (
	"time"

	"trackmate/internal/user"
)

// Message is a single directed message inside a two-party conversation.
// Once stored it only mutates in two ways: the receiver can flip IsRead,
// and either participant can add themselves to RemovedFromConvo.
type Message struct {
	ID               int64     `json:"id"`
	ConversationID   string    `json:"conversationId"`
	SenderID         string    `json:"senderId"`
	ReceiverID       string    `json:"receiverId"`
	Text             string    `json:"text"`
	CreatedAt        time.Time `json:"createdAt"`
	IsRead           bool      `json:"isRead"`
	IsSent           bool      `json:"isSent"`
	RemovedFromConvo []string  `json:"removedFromConvo"`
}

// OtherParticipant returns the identity on the opposite side of the message
// from the given user.
func (m *Message) OtherParticipant(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// AnnotatedMessage is a message joined with the other participant's public
// profile, the shape clients render in a thread view.
type AnnotatedMessage struct {
	Message
	OtherUser *user.Profile `json:"otherUser"`
}

// LastMessage is the most recent message preview inside a conversation
// summary. CreatedAt is nil when the conversation has no visible messages.
type LastMessage struct {
	Text      string     `json:"text"`
	CreatedAt *time.Time `json:"createdAt"`
}

// ConversationSummary is one entry in a user's inbox listing.
type ConversationSummary struct {
	ConversationID string        `json:"conversationId"`
	OtherUser      *user.Profile `json:"otherUser"`
	LastMessage    LastMessage   `json:"lastMessage"`
	UnreadCount    int           `json:"unreadCount"`
}

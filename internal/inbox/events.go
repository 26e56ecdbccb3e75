package inbox

import "encoding/json"

// Envelope is the wire frame used in both directions: a named event plus its
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> server events.
const (
	EventJoinRoom           = "joinRoom"
	EventLeaveRoom          = "leaveRoom"
	EventSendMessage        = "sendMessage"
	EventMarkMessagesAsRead = "markMessagesAsRead"
	EventDeleteConversation = "deleteConversationForUser"
	EventFetchMessages      = "fetchMessages"
	EventFetchConversations = "fetchConversations"
	EventTrackAnnouncement  = "trackAnnouncement"
)

// Server -> client events.
const (
	EventMessageBlocked       = "messageBlocked"
	EventMessageSent          = "messageSent"
	EventMessagesRead         = "messagesRead"
	EventConversationDeleted  = "conversationDeletedForUser"
	EventMessagesFetched      = "messagesFetched"
	EventConversationsFetched = "conversationsFetched"
	EventError                = "error"
)

type RoomPayload struct {
	ConversationID string `json:"conversationId"`
}

type SendMessagePayload struct {
	ReceiverID     string `json:"receiverId"`
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

type AnnouncementPayload struct {
	TrackID      string `json:"trackId"`
	Announcement string `json:"announcement"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type MessagesReadPayload struct {
	ConversationID string `json:"conversationId"`
}

package inbox

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("inbox: message not found")
)

// MessageStore is the durable record of messages per conversation. The
// session handler only touches persistence through this interface so tests
// can swap in an in-memory fake.
type MessageStore interface {
	// Insert persists a new message and assigns its ID and CreatedAt.
	Insert(ctx context.Context, m *Message) error

	// VisibleByConversation returns the conversation's messages oldest-first,
	// excluding those the given user has removed.
	VisibleByConversation(ctx context.Context, conversationID, userID string) ([]*Message, error)

	// VisibleByUser returns every message the user participates in and has
	// not removed, newest-first. Feeds the inbox summary grouping.
	VisibleByUser(ctx context.Context, userID string) ([]*Message, error)

	// LastInConversation returns the newest message in the conversation
	// regardless of removal state, or ErrNotFound.
	LastInConversation(ctx context.Context, conversationID string) (*Message, error)

	// CountUnread counts unread messages addressed to receiverID.
	CountUnread(ctx context.Context, conversationID, receiverID string) (int, error)

	// MarkRead atomically flips IsRead on all unread messages addressed to
	// receiverID in the conversation and reports how many rows changed.
	MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error)

	// AnyReceivedBy returns one message in the conversation addressed to
	// receiverID, or ErrNotFound. Used to resolve the counterpart for
	// read receipts.
	AnyReceivedBy(ctx context.Context, conversationID, receiverID string) (*Message, error)

	// MarkRemoved adds userID to RemovedFromConvo on every message of the
	// conversation. Adding an identity already present is a no-op.
	MarkRemoved(ctx context.Context, conversationID, userID string) error

	// AllRemovedByBoth reports whether every message in the conversation has
	// both participants in RemovedFromConvo. False for empty conversations.
	AllRemovedByBoth(ctx context.Context, conversationID string) (bool, error)

	// DeleteConversation permanently deletes all messages in the conversation.
	DeleteConversation(ctx context.Context, conversationID string) error
}

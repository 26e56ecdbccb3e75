package inbox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"trackmate/internal/user"
)

// ErrEmptyText rejects a message whose text is empty or whitespace.
var ErrEmptyText = errors.New("inbox: message text is required")

// UserDirectory is the slice of the user feature the messaging core needs:
// public profiles for thread annotation and delivery info (block list plus
// push token) for the send path.
type UserDirectory interface {
	Profile(ctx context.Context, id string) (*user.Profile, error)
	Delivery(ctx context.Context, id string) (*user.DeliveryInfo, error)
	PushTargetsForTrack(ctx context.Context, trackID string) ([]string, error)
}

// TrackDirectory resolves track display names for announcements.
type TrackDirectory interface {
	Name(ctx context.Context, trackID string) (string, error)
}

// Notifier hands push notifications to the best-effort delivery channel.
// Failures are logged by the caller and never affect the critical path.
type Notifier interface {
	EnqueueMessagePush(ctx context.Context, token, senderName, body string) error
	EnqueueAnnouncement(ctx context.Context, token, trackName, body string) error
}

// Service implements the messaging operations behind the session protocol.
// Every method is a failure boundary: an error is reported to the
// initiating endpoint only and never tears down the session.
type Service struct {
	store      MessageStore
	users      UserDirectory
	tracks     TrackDirectory
	dispatcher *Dispatcher
	notifier   Notifier
	log        *logrus.Logger
}

func NewService(store MessageStore, users UserDirectory, tracks TrackDirectory,
	dispatcher *Dispatcher, notifier Notifier, log *logrus.Logger) *Service {
	return &Service{
		store:      store,
		users:      users,
		tracks:     tracks,
		dispatcher: dispatcher,
		notifier:   notifier,
		log:        log,
	}
}

// JoinRoom subscribes the endpoint to a conversation room and announces the
// join to the room, the joining endpoint included.
func (s *Service) JoinRoom(origin Endpoint, conversationID string) {
	s.dispatcher.Join(conversationID, origin.ID())
	s.dispatcher.DeliverToRoom(conversationID, EventJoinRoom, RoomPayload{ConversationID: conversationID})
}

// LeaveRoom unsubscribes the endpoint from a conversation room.
func (s *Service) LeaveRoom(origin Endpoint, conversationID string) {
	s.dispatcher.Leave(conversationID, origin.ID())
	s.dispatcher.DeliverToUser(origin.UserID(), EventLeaveRoom, RoomPayload{ConversationID: conversationID})
}

type messageSentPayload struct {
	*Message
	OtherUser *user.Profile `json:"otherUser"`
}

// SendMessage persists a new message and fans it out to every endpoint of
// both participants. A receiver-side block rejects the send before anything
// is written; the rejection goes to the initiating endpoint only.
func (s *Service) SendMessage(ctx context.Context, origin Endpoint, p SendMessagePayload) error {
	senderID := origin.UserID()

	if strings.TrimSpace(p.Message) == "" {
		_ = origin.Send(EventError, ErrorPayload{Error: "Message text is required."})
		return nil
	}

	receiver, err := s.users.Delivery(ctx, p.ReceiverID)
	if err != nil {
		return fmt.Errorf("resolve receiver: %w", err)
	}

	for _, blocked := range receiver.Blocked {
		if blocked == senderID {
			_ = origin.Send(EventMessageBlocked, ErrorPayload{
				Error: "User is no longer accepting messages from this account.",
			})
			return nil
		}
	}

	msg := &Message{
		ConversationID:   p.ConversationID,
		SenderID:         senderID,
		ReceiverID:       p.ReceiverID,
		Text:             p.Message,
		IsSent:           true,
		RemovedFromConvo: []string{},
	}
	if err := s.store.Insert(ctx, msg); err != nil {
		return fmt.Errorf("persist message: %w", err)
	}

	otherUser, err := s.users.Profile(ctx, p.ReceiverID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", p.ReceiverID).Warn("profile lookup failed, sending message without it")
	}

	payload := messageSentPayload{Message: msg, OtherUser: otherUser}
	s.dispatcher.DeliverToUser(p.ReceiverID, EventMessageSent, payload)
	s.dispatcher.DeliverToUser(senderID, EventMessageSent, payload)

	if receiver.PushToken != "" {
		sender, err := s.users.Profile(ctx, senderID)
		senderName := senderID
		if err == nil {
			senderName = sender.UserName
		}
		if err := s.notifier.EnqueueMessagePush(ctx, receiver.PushToken, senderName, p.Message); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"sender_id":   senderID,
				"receiver_id": p.ReceiverID,
			}).Error("failed to enqueue push notification")
		}
	}

	return nil
}

// MarkMessagesAsRead flips every unread message addressed to the caller in
// the conversation, then notifies both sides. Nothing unread is a benign
// no-op, not a protocol error.
func (s *Service) MarkMessagesAsRead(ctx context.Context, origin Endpoint, conversationID string) error {
	userID := origin.UserID()

	updated, err := s.store.MarkRead(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if updated == 0 {
		s.log.WithFields(logrus.Fields{
			"user_id":         userID,
			"conversation_id": conversationID,
		}).Debug("no unread messages to mark")
		return nil
	}

	payload := MessagesReadPayload{ConversationID: conversationID}
	s.dispatcher.DeliverToUser(userID, EventMessagesRead, payload)

	// The 2-party model guarantees a single counterpart; any message received
	// by the caller names it. With no such message there is nobody to notify.
	probe, err := s.store.AnyReceivedBy(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.WithField("conversation_id", conversationID).Debug("no sender found for read receipt")
			return nil
		}
		return fmt.Errorf("resolve sender: %w", err)
	}
	s.dispatcher.DeliverToUser(probe.SenderID, EventMessagesRead, payload)
	return nil
}

// DeleteConversationForUser records the caller's deletion of their side of
// the conversation. Once both participants have deleted, the messages are
// purged for good and the other side is told.
func (s *Service) DeleteConversationForUser(ctx context.Context, origin Endpoint, conversationID string) error {
	userID := origin.UserID()

	if err := s.store.MarkRemoved(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("mark removed: %w", err)
	}

	bothRemoved, err := s.store.AllRemovedByBoth(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("check removal: %w", err)
	}

	payload := RoomPayload{ConversationID: conversationID}
	if bothRemoved {
		// Resolve the counterpart before the rows disappear.
		otherID := ""
		if last, err := s.store.LastInConversation(ctx, conversationID); err == nil {
			otherID = last.OtherParticipant(userID)
		}
		if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
			return fmt.Errorf("purge conversation: %w", err)
		}
		s.log.WithField("conversation_id", conversationID).Info("conversation purged after both sides deleted")
		if otherID != "" {
			s.dispatcher.DeliverToUser(otherID, EventConversationDeleted, payload)
		}
	}

	_ = origin.Send(EventConversationDeleted, payload)
	return nil
}

// Thread returns the user's visible view of a conversation, oldest-first,
// each message annotated with the other participant's profile.
func (s *Service) Thread(ctx context.Context, conversationID, userID string) ([]AnnotatedMessage, error) {
	msgs, err := s.store.VisibleByConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	annotated := make([]AnnotatedMessage, 0, len(msgs))
	for _, m := range msgs {
		profile, err := s.users.Profile(ctx, m.OtherParticipant(userID))
		if err != nil {
			s.log.WithError(err).WithField("user_id", m.OtherParticipant(userID)).Warn("profile lookup failed")
		}
		annotated = append(annotated, AnnotatedMessage{Message: *m, OtherUser: profile})
	}
	return annotated, nil
}

// FetchMessages delivers the caller's view of a conversation to the
// requesting endpoint.
func (s *Service) FetchMessages(ctx context.Context, origin Endpoint, conversationID string) error {
	annotated, err := s.Thread(ctx, conversationID, origin.UserID())
	if err != nil {
		return err
	}
	return origin.Send(EventMessagesFetched, annotated)
}

// Summaries returns one summary per conversation the user still
// participates in, ordered by message recency.
func (s *Service) Summaries(ctx context.Context, userID string) ([]ConversationSummary, error) {
	msgs, err := s.store.VisibleByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch conversations: %w", err)
	}

	// msgs are newest-first, so first occurrence of each conversation key
	// fixes the recency ordering.
	seen := make(map[string]bool)
	summaries := make([]ConversationSummary, 0)
	for _, m := range msgs {
		if seen[m.ConversationID] {
			continue
		}
		seen[m.ConversationID] = true

		summary := ConversationSummary{
			ConversationID: m.ConversationID,
			LastMessage:    LastMessage{Text: "No messages yet"},
		}

		profile, err := s.users.Profile(ctx, m.OtherParticipant(userID))
		if err != nil {
			s.log.WithError(err).WithField("user_id", m.OtherParticipant(userID)).Warn("profile lookup failed")
		}
		summary.OtherUser = profile

		if last, err := s.store.LastInConversation(ctx, m.ConversationID); err == nil {
			created := last.CreatedAt
			summary.LastMessage = LastMessage{Text: last.Text, CreatedAt: &created}
		}

		unread, err := s.store.CountUnread(ctx, m.ConversationID, userID)
		if err != nil {
			return nil, fmt.Errorf("count unread: %w", err)
		}
		summary.UnreadCount = unread

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// FetchConversations delivers the caller's inbox listing to the requesting
// endpoint.
func (s *Service) FetchConversations(ctx context.Context, origin Endpoint) error {
	summaries, err := s.Summaries(ctx, origin.UserID())
	if err != nil {
		return err
	}
	return origin.Send(EventConversationsFetched, summaries)
}

// PostMessage is the REST send path: derive the conversation key, persist,
// and return the updated thread oldest-first. No fan-out or push happens
// here; connected clients learn about the message on their next fetch.
func (s *Service) PostMessage(ctx context.Context, senderID, receiverID, text string) ([]*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	conversationID := ConversationID(senderID, receiverID)
	msg := &Message{
		ConversationID:   conversationID,
		SenderID:         senderID,
		ReceiverID:       receiverID,
		Text:             text,
		RemovedFromConvo: []string{},
	}
	if err := s.store.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	return s.store.VisibleByConversation(ctx, conversationID, senderID)
}

// TrackAnnouncement pushes an announcement to every user who favorited the
// track and registered a push token. Delivery is best-effort per recipient.
func (s *Service) TrackAnnouncement(ctx context.Context, origin Endpoint, p AnnouncementPayload) error {
	trackName, err := s.tracks.Name(ctx, p.TrackID)
	if err != nil {
		s.log.WithError(err).WithField("track_id", p.TrackID).Warn("track not found for announcement")
		return nil
	}

	tokens, err := s.users.PushTargetsForTrack(ctx, p.TrackID)
	if err != nil {
		return fmt.Errorf("resolve announcement targets: %w", err)
	}

	for _, token := range tokens {
		if err := s.notifier.EnqueueAnnouncement(ctx, token, trackName, p.Announcement); err != nil {
			s.log.WithError(err).WithField("track_id", p.TrackID).Error("failed to enqueue announcement")
		}
	}
	return nil
}

package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ErrSlowConsumer is returned by Send when the session's outbound buffer is
// full; the frame is dropped rather than blocking the dispatcher.
var ErrSlowConsumer = errors.New("inbox: send buffer full")

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum event frame size allowed from peer.
	sendBuffer     = 256
)

// Session is one authenticated websocket connection: the transport side of
// an Endpoint. Events from a single session are processed in arrival order;
// different sessions, even for the same user, interleave freely.
type Session struct {
	id     string
	userID string
	conn   *websocket.Conn

	svc        *Service
	dispatcher *Dispatcher
	send       chan []byte
	log        *logrus.Entry
}

func NewSession(userID string, conn *websocket.Conn, svc *Service, dispatcher *Dispatcher, log *logrus.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:         id,
		userID:     userID,
		conn:       conn,
		svc:        svc,
		dispatcher: dispatcher,
		send:       make(chan []byte, sendBuffer),
		log:        log.WithFields(logrus.Fields{"endpoint_id": id, "user_id": userID}),
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

// Send marshals the event into an envelope and queues it for the write
// pump. A full buffer drops the frame rather than blocking the caller.
func (s *Session) Send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}
	select {
	case s.send <- frame:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Start registers the session and launches the pumps. It returns
// immediately; readPump owns teardown.
func (s *Session) Start() {
	s.dispatcher.Attach(s)
	s.log.Info("user connected")
	go s.writePump()
	go s.readPump()
}

// readPump pumps events from the websocket connection into the service.
func (s *Session) readPump() {
	defer func() {
		s.dispatcher.Detach(s)
		s.conn.Close()
		s.log.Info("user disconnected")
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.WithError(err).Warn("read error")
			}
			return
		}
		s.handle(raw)
	}
}

// handle decodes and runs one inbound event. Each event is its own failure
// boundary: an error is logged and reported to this session only, and the
// session stays open.
func (s *Session) handle(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.WithError(err).Warn("malformed event frame")
		_ = s.Send(EventError, ErrorPayload{Error: "malformed event"})
		return
	}

	ctx := context.Background()
	var err error

	switch env.Event {
	case EventJoinRoom:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			s.svc.JoinRoom(s, p.ConversationID)
		}
	case EventLeaveRoom:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			s.svc.LeaveRoom(s, p.ConversationID)
		}
	case EventSendMessage:
		var p SendMessagePayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = s.svc.SendMessage(ctx, s, p)
		}
	case EventMarkMessagesAsRead:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = s.svc.MarkMessagesAsRead(ctx, s, p.ConversationID)
		}
	case EventDeleteConversation:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = s.svc.DeleteConversationForUser(ctx, s, p.ConversationID)
		}
	case EventFetchMessages:
		var p RoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = s.svc.FetchMessages(ctx, s, p.ConversationID)
		}
	case EventFetchConversations:
		err = s.svc.FetchConversations(ctx, s)
	case EventTrackAnnouncement:
		var p AnnouncementPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = s.svc.TrackAnnouncement(ctx, s, p)
		}
	default:
		s.log.WithField("event", env.Event).Warn("unknown event")
		_ = s.Send(EventError, ErrorPayload{Error: "unknown event: " + env.Event})
		return
	}

	if err != nil {
		s.log.WithError(err).WithField("event", env.Event).Error("event failed")
		_ = s.Send(EventError, ErrorPayload{Error: "failed to process " + env.Event})
	}
}

// writePump pumps queued frames to the websocket connection and keeps the
// connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

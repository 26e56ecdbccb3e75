package inbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

// TokenValidator is the slice of the user service the inbox needs for
// connection auth. Keeps the packages loosely coupled.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

type Handler struct {
	svc        *Service
	dispatcher *Dispatcher
	validator  TokenValidator
	log        *logrus.Logger
}

func NewHandler(svc *Service, dispatcher *Dispatcher, validator TokenValidator, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, dispatcher: dispatcher, validator: validator, log: log}
}

// ServeWs authenticates and upgrades a messaging connection. A missing or
// invalid token rejects the connection before any event is processed.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}
	if token == "" {
		http.Error(w, "Authentication error: Token is missing", http.StatusUnauthorized)
		return
	}

	userID, err := h.validator.ValidateToken(token)
	if err != nil {
		http.Error(w, "Authentication error: Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	NewSession(userID, conn, h.svc, h.dispatcher, h.log).Start()
}

// GetInbox returns the grouped conversation summaries for a user, the REST
// mirror of the fetchConversations event.
func (h *Handler) GetInbox(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "User ID is required.")
		return
	}

	summaries, err := h.svc.Summaries(r.Context(), id)
	if err != nil {
		h.log.WithError(err).Error("failed to fetch inbox")
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch Inbox.")
		return
	}

	json.NewEncoder(w).Encode(summaries)
}

// GetThread returns the messages between two users via the derived
// conversation key.
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	senderID := r.URL.Query().Get("senderId")
	receiverID := r.URL.Query().Get("receiverId")
	if senderID == "" || receiverID == "" {
		writeJSONError(w, http.StatusBadRequest, "Sender and Receiver IDs are required.")
		return
	}

	msgs, err := h.svc.Thread(r.Context(), ConversationID(senderID, receiverID), senderID)
	if err != nil {
		h.log.WithError(err).Error("failed to fetch thread")
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch messages.")
		return
	}

	// The history route serves newest-first.
	slices.Reverse(msgs)
	json.NewEncoder(w).Encode(msgs)
}

type postMessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

// PostMessage creates a message over REST and returns the updated thread.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SenderID == "" || req.ReceiverID == "" || req.Text == "" {
		writeJSONError(w, http.StatusBadRequest, "senderId, receiverId and text are required.")
		return
	}

	thread, err := h.svc.PostMessage(r.Context(), req.SenderID, req.ReceiverID, req.Text)
	if err != nil {
		if errors.Is(err, ErrEmptyText) {
			writeJSONError(w, http.StatusBadRequest, "Message text is required.")
			return
		}
		h.log.WithError(err).Error("failed to post message")
		writeJSONError(w, http.StatusInternalServerError, "Failed to send message.")
		return
	}

	json.NewEncoder(w).Encode(thread)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

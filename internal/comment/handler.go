package comment

import (
	"encoding/json"
	"html"
	"net/http"
	"strconv"
	"strings"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List serves a paginated page of a track's comments, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	trackID := r.URL.Query().Get("trackId")
	if trackID == "" {
		writeError(w, http.StatusBadRequest, "Track ID is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	comments, err := h.repo.ListByTrack(r.Context(), trackID, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch comments")
		return
	}

	json.NewEncoder(w).Encode(map[string]any{"comments": comments})
}

type createRequest struct {
	Text    string `json:"text"`
	TrackID string `json:"trackId"`
	UserID  string `json:"userId"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == "" || req.TrackID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	c := &Comment{
		TrackID: req.TrackID,
		UserID:  req.UserID,
		Text:    sanitize(req.Text),
		Likes:   []string{},
		Replies: []Reply{},
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c)
}

type patchRequest struct {
	CommentID int64  `json:"commentId"`
	ReplyID   int64  `json:"replyId"`
	UserID    string `json:"userId"`
	Action    string `json:"action"`
	Text      string `json:"text"`
}

// Patch handles the enumerated comment actions: like, unlike, reply,
// likeReply, unlikeReply.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CommentID == 0 || req.UserID == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	exists, err := h.repo.Exists(r.Context(), req.CommentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}

	switch req.Action {
	case "like":
		err = h.repo.Like(r.Context(), req.CommentID, req.UserID)
	case "unlike":
		err = h.repo.Unlike(r.Context(), req.CommentID, req.UserID)
	case "reply":
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "Reply text is required")
			return
		}
		rep := &Reply{CommentID: req.CommentID, UserID: req.UserID, Text: sanitize(req.Text), Likes: []string{}}
		if err = h.repo.AddReply(r.Context(), rep); err == nil {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(rep)
			return
		}
	case "likeReply":
		err = h.repo.LikeReply(r.Context(), req.ReplyID, req.UserID)
	case "unlikeReply":
		err = h.repo.UnlikeReply(r.Context(), req.ReplyID, req.UserID)
	default:
		writeError(w, http.StatusBadRequest, "Unknown action: "+req.Action)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
}

// sanitize neutralizes markup before comment text is stored.
func sanitize(text string) string {
	return html.EscapeString(strings.TrimSpace(text))
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

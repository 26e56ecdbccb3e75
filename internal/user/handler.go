package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Service.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			writeError(w, http.StatusBadRequest, "Email or Username already in use")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid email or password")
		return
	}

	json.NewEncoder(w).Encode(res)
}

// GetAccount serves account details by email, id, or a CSV of user IDs
// (bulk public profiles).
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	id := r.URL.Query().Get("id")
	userIDs := r.URL.Query().Get("userIds")

	if email == "" && id == "" && userIDs == "" {
		writeError(w, http.StatusBadRequest, "Provide email, id, or an array of user IDs")
		return
	}

	if userIDs != "" {
		profiles, err := h.Service.Profiles(r.Context(), strings.Split(userIDs, ","))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		if len(profiles) == 0 {
			writeError(w, http.StatusNotFound, "No users found")
			return
		}
		json.NewEncoder(w).Encode(profiles)
		return
	}

	var u *User
	var err error
	if email != "" {
		u, err = h.Service.AccountByEmail(r.Context(), email)
	} else {
		u, err = h.Service.Account(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	json.NewEncoder(w).Encode(u)
}

type patchAccountRequest struct {
	Email   string         `json:"email"`
	Updates *AccountUpdate `json:"updates"`
}

func (h *Handler) PatchAccount(w http.ResponseWriter, r *http.Request) {
	var req patchAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if req.Updates == nil {
		writeError(w, http.StatusBadRequest, "No updates provided")
		return
	}

	u, err := h.Service.UpdateAccount(r.Context(), req.Email, req.Updates)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, ErrSelfBlock):
			writeError(w, http.StatusBadRequest, "You cannot block yourself")
		default:
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	json.NewEncoder(w).Encode(map[string]*User{"user": u})
}

type deleteAccountRequest struct {
	Email string `json:"email"`
	ID    string `json:"id"`
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" && req.ID == "" {
		writeError(w, http.StatusBadRequest, "Email or ID is required")
		return
	}

	var u *User
	var err error
	if req.Email != "" {
		u, err = h.Service.AccountByEmail(r.Context(), req.Email)
	} else {
		u, err = h.Service.Account(r.Context(), req.ID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := h.Service.DeleteAccount(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	json.NewEncoder(w).Encode(map[string]string{
		"message": "User account and associated conversations deleted successfully",
	})
}

func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	available, err := h.Service.EmailAvailable(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"available": available})
}

func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	userName := r.URL.Query().Get("userName")
	if userName == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}
	available, err := h.Service.UserNameAvailable(r.Context(), userName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"available": available})
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	users, err := h.Service.Search(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	json.NewEncoder(w).Encode(users)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package track

import (
	"encoding/json"
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

// Search serves the track directory: by name, or by lat/lng radius.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("trackName")
	latStr, lngStr := q.Get("lat"), q.Get("lng")

	if name == "" && (latStr == "" || lngStr == "") {
		writeError(w, http.StatusBadRequest, "Please provide a track name or location.")
		return
	}

	if name != "" {
		tracks, err := h.repo.SearchByName(r.Context(), name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch tracks.")
			return
		}
		if len(tracks) == 0 {
			writeError(w, http.StatusNotFound, "No tracks found with that name.")
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"tracks": tracks})
		return
	}

	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "Invalid search parameters provided.")
		return
	}

	radius := DefaultRadiusMeters
	if v := q.Get("radius"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			radius = parsed
		}
	}

	tracks, err := h.repo.Nearby(r.Context(), lat, lng, radius)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch tracks.")
		return
	}
	if len(tracks) == 0 {
		writeError(w, http.StatusNotFound, "No tracks found in this area.")
		return
	}

	json.NewEncoder(w).Encode(map[string]any{"tracks": tracks, "lat": lat, "lng": lng})
}

// ByIDs serves a bulk lookup for a comma-separated ID list.
func (h *Handler) ByIDs(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query().Get("ids")
	if ids == "" {
		writeError(w, http.StatusBadRequest, "Please provide track IDs.")
		return
	}

	tracks, err := h.repo.ByIDs(r.Context(), strings.Split(ids, ","))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch track(s).")
		return
	}
	if len(tracks) == 0 {
		writeError(w, http.StatusNotFound, "No tracks found for the given ID(s).")
		return
	}

	json.NewEncoder(w).Encode(tracks)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

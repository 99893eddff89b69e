package api

import (
	"database/sql"
	"net/http"

	"github.com/podari/podari/internal/fairness"
	"github.com/podari/podari/internal/store"
)

// UsersHandler handles profile endpoints.
type UsersHandler struct {
	DB *sql.DB
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

// Me handles GET /api/users/me: the caller's profile plus current
// give/receive stats and fairness classification.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	stats, err := store.UserStatsSnapshot(r.Context(), h.DB, user.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"user":     user,
		"stats":    stats,
		"fairness": fairness.Classify(stats.TotalItemsGiven, stats.TotalItemsReceived),
	})
}

// UpdateMe handles PUT /api/users/me.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateUserProfile(r.Context(), h.DB, claims.UserID, req.Name); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	user, _ := store.GetUser(r.Context(), h.DB, claims.UserID)
	jsonResponse(w, http.StatusOK, user)
}

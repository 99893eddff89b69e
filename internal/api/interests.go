package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/podari/podari/internal/auth"
	"github.com/podari/podari/internal/fairness"
	"github.com/podari/podari/internal/model"
	"github.com/podari/podari/internal/store"
)

// InterestsHandler handles the interest ledger and recipient selection
// endpoints.
type InterestsHandler struct {
	DB *sql.DB
}

type selectRecipientRequest struct {
	RecipientUserID int64 `json:"recipient_user_id"`
}

// interestEntry is an interest plus its fairness classification, as shown
// to the owner.
type interestEntry struct {
	model.Interest
	Fairness fairness.Classification `json:"fairness"`
}

// Express handles POST /api/items/{id}/interest.
func (h *InterestsHandler) Express(w http.ResponseWriter, r *http.Request) {
	claims, itemID, ok := h.callerAndItem(w, r)
	if !ok {
		return
	}

	interest, err := store.ExpressInterest(r.Context(), h.DB, itemID, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, interest)
}

// Withdraw handles DELETE /api/items/{id}/interest.
func (h *InterestsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims, itemID, ok := h.callerAndItem(w, r)
	if !ok {
		return
	}

	if err := store.RemoveInterest(r.Context(), h.DB, itemID, claims.UserID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "interest withdrawn"})
}

// List handles GET /api/items/{id}/interest. Owner only: the entries
// carry other users' stats snapshots.
func (h *InterestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, itemID, ok := h.callerAndItem(w, r)
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, itemID)
	if err != nil {
		storeError(w, err)
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.OwnerID != claims.UserID {
		jsonError(w, http.StatusForbidden, "only the owner can list interests")
		return
	}

	interests, err := store.ListInterests(r.Context(), h.DB, itemID)
	if err != nil {
		storeError(w, err)
		return
	}

	entries := make([]interestEntry, 0, len(interests))
	for _, in := range interests {
		entries = append(entries, interestEntry{
			Interest: in,
			Fairness: fairness.Classify(in.Stats.TotalItemsGiven, in.Stats.TotalItemsReceived),
		})
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Select handles POST /api/items/{id}/select-recipient.
func (h *InterestsHandler) Select(w http.ResponseWriter, r *http.Request) {
	claims, itemID, ok := h.callerAndItem(w, r)
	if !ok {
		return
	}

	var req selectRecipientRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecipientUserID == 0 {
		jsonError(w, http.StatusBadRequest, "recipient_user_id required")
		return
	}

	item, err := store.SelectRecipient(r.Context(), h.DB, itemID, claims.UserID, req.RecipientUserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Unselect handles DELETE /api/items/{id}/select-recipient.
func (h *InterestsHandler) Unselect(w http.ResponseWriter, r *http.Request) {
	claims, itemID, ok := h.callerAndItem(w, r)
	if !ok {
		return
	}

	item, err := store.UnselectRecipient(r.Context(), h.DB, itemID, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// MarkTaken handles POST /api/items/{id}/mark-taken.
func (h *InterestsHandler) MarkTaken(w http.ResponseWriter, r *http.Request) {
	claims, itemID, ok := h.callerAndItem(w, r)
	if !ok {
		return
	}

	item, err := store.MarkTaken(r.Context(), h.DB, itemID, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

func (h *InterestsHandler) callerAndItem(w http.ResponseWriter, r *http.Request) (*auth.Claims, int64, bool) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return nil, 0, false
	}

	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, 0, false
	}
	return claims, itemID, true
}

package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/podari/podari/internal/imaging"
	"github.com/podari/podari/internal/model"
	"github.com/podari/podari/internal/store"
)

// ItemsHandler handles item CRUD and image endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// updateItemRequest uses pointers so PATCH can distinguish absent fields
// from empty ones. Status is not accepted: it only moves through the
// interest and selection endpoints.
type updateItemRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Location    *string  `json:"location"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Status      *string  `json:"status"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ItemFilter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
	}
	if owner := r.URL.Query().Get("owner"); owner != "" {
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid owner id")
			return
		}
		filter.OwnerID = id
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, store.NewItem{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Lat:         req.Lat,
		Lng:         req.Lng,
	})
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemFromPath(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PATCH /api/items/{id}. Metadata only; a request that
// tries to change status is rejected so the lifecycle guards cannot be
// bypassed.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	item, ok := h.itemFromPath(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != nil && *req.Status != item.Status {
		jsonError(w, http.StatusBadRequest, "status is managed through interest and selection endpoints")
		return
	}

	in := store.NewItem{
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		Lat:         item.Lat,
		Lng:         item.Lng,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Category != nil {
		in.Category = *req.Category
	}
	if req.Location != nil {
		in.Location = *req.Location
	}
	if req.Lat != nil {
		in.Lat = req.Lat
	}
	if req.Lng != nil {
		in.Lng = req.Lng
	}
	if in.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}

	updated, err := store.UpdateItem(r.Context(), h.DB, item.ID, claims.UserID, in)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles POST /api/items/{id}/images.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	item, ok := h.itemFromPath(w, r)
	if !ok {
		return
	}
	if item.OwnerID != claims.UserID {
		jsonError(w, http.StatusForbidden, "only the owner can add images")
		return
	}

	// Limit to 10 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	position, err := store.AddItemImage(r.Context(), h.DB, item.ID, processed.Data, processed.MIME)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"position": position})
}

// GetImage handles GET /api/items/{id}/images/{pos}.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	pos, err := strconv.Atoi(r.PathValue("pos"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image position")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id, pos)
	if err != nil {
		storeError(w, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// itemFromPath parses {id} and loads the item, writing the error response
// on failure.
func (h *ItemsHandler) itemFromPath(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return nil, false
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}

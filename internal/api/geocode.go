package api

import (
	"net/http"
	"strconv"

	"github.com/podari/podari/internal/geo"
)

// GeocodeHandler exposes the geocoding helper used by clients to resolve
// item locations for display.
type GeocodeHandler struct {
	Geo *geo.Client
}

// Forward handles GET /api/geocode?q=.
func (h *GeocodeHandler) Forward(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, http.StatusBadRequest, "q required")
		return
	}

	loc, err := h.Geo.Forward(r.Context(), query)
	if err != nil {
		jsonError(w, http.StatusBadGateway, "geocoding failed")
		return
	}
	jsonResponse(w, http.StatusOK, loc)
}

// Reverse handles GET /api/geocode/reverse?lat=&lng=.
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lat")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lng")
		return
	}

	loc, err := h.Geo.Reverse(r.Context(), lat, lng)
	if err != nil {
		jsonError(w, http.StatusBadGateway, "geocoding failed")
		return
	}
	jsonResponse(w, http.StatusOK, loc)
}

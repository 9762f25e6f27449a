package handler

import (
	"net/http"

	"github.com/aidbridge-api/internal/application/location"
	"github.com/aidbridge-api/internal/domain"
)

// LocationHandler resolves coordinates picked on a map into an address.
type LocationHandler struct {
	svc location.Service
}

func NewLocationHandler(svc location.Service) *LocationHandler { return &LocationHandler{svc: svc} }

// Resolve never fails on geocoder errors; the address falls back to the
// formatted coordinates.
func (h *LocationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	loc, err := h.svc.FromReport(r.Context(), domain.PositionReport{Source: "map", Lat: body.Lat, Lng: body.Lng})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

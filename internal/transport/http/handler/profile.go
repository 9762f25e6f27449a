package handler

import (
	"net/http"

	"github.com/aidbridge-api/internal/application/profile"
	"github.com/aidbridge-api/internal/domain"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), sc)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateLocation accepts a device position report or a map pick.
func (h *ProfileHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var report domain.PositionReport
	if !decodeJSON(w, r, &report) {
		return
	}
	p, err := h.svc.UpdateLocation(r.Context(), sc, report)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

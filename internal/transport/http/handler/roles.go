package handler

import (
	"net/http"

	"github.com/aidbridge-api/internal/application/role"
	"github.com/aidbridge-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// RoleHandler lets admins read and change user roles.
type RoleHandler struct {
	svc role.Service
}

func NewRoleHandler(svc role.Service) *RoleHandler { return &RoleHandler{svc: svc} }

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	ur, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ur)
}

func (h *RoleHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role domain.Role `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	ur, err := h.svc.Assign(r.Context(), chi.URLParam(r, "id"), body.Role)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ur)
}

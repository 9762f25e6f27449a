package handler

import (
	"net/http"

	"github.com/aidbridge-api/internal/application/session"
	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/pkg/validate"
)

// SessionHandler handles sign-up, sign-in and sign-out.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.SignUp(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authEnvelope(result))
}

func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.SignIn(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authEnvelope(result))
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{User: sc})
}

func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	if err := h.svc.SignOut(r.Context(), sc.SessionID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "signed out"})
}

func authEnvelope(res *session.Result) AuthEnvelope {
	user := res.User
	return AuthEnvelope{Bearer: res.Bearer, Session: res.Session, User: &user}
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
	Field     string `json:"field,omitempty"`
}

// AuthEnvelope wraps sign-up and sign-in responses.
type AuthEnvelope struct {
	Bearer  string                 `json:"Bearer,omitempty"`
	Session *domain.Session        `json:"session,omitempty"`
	User    *domain.SessionContext `json:"user,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	User *domain.SessionContext `json:"user"`
}

// DataEnvelope wraps list responses.
type DataEnvelope[T any] struct {
	Data []T `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a service error to its status code and body.
func httpError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, MessageEnvelope{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, domain.ErrAlreadyClaimed):
		writeJSON(w, http.StatusConflict, MessageEnvelope{Error: domain.ErrAlreadyClaimed.Error(), ErrorCode: http.StatusConflict})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrPermission):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrLocationRequired):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNetwork):
		slog.Warn("upstream failure", "err", err)
		writeError(w, http.StatusBadGateway, domain.ErrNetwork.Error())
	default:
		slog.Error("unhandled error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// sessionOr401 returns the caller's session context or writes 401.
func sessionOr401(w http.ResponseWriter, r *http.Request) (*domain.SessionContext, bool) {
	sc, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return sc, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

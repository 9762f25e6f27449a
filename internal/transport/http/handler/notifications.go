package handler

import (
	"net/http"

	"github.com/aidbridge-api/internal/application/notification"
	"github.com/aidbridge-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	notifications, err := h.svc.ListUnread(r.Context(), sc.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, DataEnvelope[domain.Notification]{Data: notifications})
}

// MarkRead is idempotent: reading an already read notification succeeds.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"), sc.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "marked as read"})
}

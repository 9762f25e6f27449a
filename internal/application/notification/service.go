package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/metrics"
	"github.com/aidbridge-api/internal/pkg/id"
)

// unreadLimit bounds how many unread notifications one listing returns.
const unreadLimit = 100

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	ListUnread(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}

type profileReader interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type Service interface {
	Notify(ctx context.Context, recipient, requestID, message string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}

type service struct {
	repo      notificationStore
	profiles  profileReader
	publisher changefeed.Publisher
	sms       smsSender
}

// NewService wires the emitter. sms may be nil to disable text messages.
func NewService(repo notificationStore, profiles profileReader, publisher changefeed.Publisher, sms smsSender) Service {
	return &service{repo: repo, profiles: profiles, publisher: publisher, sms: sms}
}

// ClaimMessage is the text sent to a requester whose request was claimed.
func ClaimMessage(title string) string {
	return fmt.Sprintf("Update is on the way! Someone has claimed your request %q.", title)
}

// Notify stores one unread notification for recipient and announces it on
// the change feed. A text message is attempted when the recipient has a
// phone number; its failure is logged and not returned.
func (s *service) Notify(ctx context.Context, recipient, requestID, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         recipient,
		RequestID:      requestID,
		Message:        message,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, n); err != nil {
		metrics.RecordNotification("inbox", false)
		return nil, err
	}
	metrics.RecordNotification("inbox", true)

	s.publish(ctx, n)
	s.text(ctx, recipient, message)
	return n, nil
}

func (s *service) publish(ctx context.Context, n *domain.Notification) {
	if s.publisher == nil {
		return
	}
	record, err := json.Marshal(n)
	if err != nil {
		slog.Warn("marshal notification event", "notification_id", n.NotificationID, "err", err)
		return
	}
	ev := domain.ChangeEvent{
		Table:    domain.TableNotifications,
		Type:     domain.ChangeInsert,
		RecordID: n.NotificationID,
		Columns:  map[string]string{"user_id": n.UserID},
		Record:   record,
		At:       n.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("publish notification event", "notification_id", n.NotificationID, "err", err)
	}
}

func (s *service) text(ctx context.Context, recipient, message string) {
	if s.sms == nil || s.profiles == nil {
		return
	}
	p, err := s.profiles.Get(ctx, recipient)
	if err != nil || p.Phone == nil || *p.Phone == "" {
		return
	}
	err = s.sms.SendSMS(ctx, *p.Phone, message)
	metrics.RecordNotification("sms", err == nil)
	if err != nil {
		slog.Warn("claim sms not delivered", "user_id", recipient, "err", err)
	}
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, userID, unreadLimit)
}

// MarkRead dismisses a notification. Only its recipient may do so and
// repeating the call is a no-op.
func (s *service) MarkRead(ctx context.Context, notificationID, userID string) error {
	if userID == "" {
		return fmt.Errorf("sign in to dismiss notifications: %w", domain.ErrPermission)
	}
	return s.repo.MarkRead(ctx, notificationID, userID)
}

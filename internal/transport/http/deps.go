package http

import (
	"context"
	"io"
	"time"

	"github.com/aidbridge-api/internal/application/location"
	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/domain"
	jwtinfra "github.com/aidbridge-api/internal/infrastructure/jwt"
	"github.com/aidbridge-api/internal/infrastructure/sns"
)

// RequestRepository is the minimal interface the router requires from an aid request store.
type RequestRepository interface {
	Put(ctx context.Context, req *domain.AidRequest) error
	Get(ctx context.Context, requestID string) (*domain.AidRequest, error)
	// Claim moves an open request to claimed in a single conditional write.
	Claim(ctx context.Context, requestID, claimant, claimSeq string, at time.Time) (*domain.AidRequest, error)
	SetImage(ctx context.Context, requestID, url string, at time.Time) (*domain.AidRequest, error)
	List(ctx context.Context, f domain.RequestFilter) (domain.RequestPage, error)
}

// NotificationRepository is the minimal interface the router requires from a notification store.
type NotificationRepository interface {
	Put(ctx context.Context, n *domain.Notification) error
	ListUnread(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}

// ProfileRepository is the minimal interface the router requires from a profile store.
type ProfileRepository interface {
	Put(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateLocation(ctx context.Context, userID string, loc domain.Location, at time.Time) (*domain.Profile, error)
}

// RoleRepository is the minimal interface the router requires from a user role store.
type RoleRepository interface {
	Put(ctx context.Context, ur *domain.UserRole) error
	Get(ctx context.Context, userID string) (*domain.UserRole, error)
}

// AccountRepository is the minimal interface the router requires from an account store.
type AccountRepository interface {
	Put(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
}

// ImageStore is the minimal interface the router requires from an object storage backend.
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// TokenProvider signs and verifies bearer tokens.
type TokenProvider interface {
	Sign(userID, email, role, sessionID string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Deps holds all infrastructure dependencies for the router. Geocoder,
// ImageStore, SMSSender and JWTProvider may be nil.
type Deps struct {
	RequestRepo      RequestRepository
	NotificationRepo NotificationRepository
	ProfileRepo      ProfileRepository
	RoleRepo         RoleRepository
	AccountRepo      AccountRepository
	SessionRepo      SessionRepository
	ImageStore       ImageStore
	Geocoder         location.Geocoder
	SMSSender        sns.SMSSender
	JWTProvider      TokenProvider
	Feed             changefeed.Broker
}
